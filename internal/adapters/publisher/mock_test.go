package publisher

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"smm-planner/internal/domain"
)

func TestMockPublishSuccess(t *testing.T) {
	pub := NewMock(domain.PlatformTwitter, time.Second, 1.0, 0, 0, rand.New(rand.NewSource(1)))

	out := pub.Publish(context.Background(), domain.ScheduledPost{})
	if !out.Succeeded {
		t.Fatalf("при successRate=1 публикация должна удаться: %+v", out)
	}
	if out.Platform != domain.PlatformTwitter {
		t.Fatalf("исход должен нести платформу издателя, получили %q", out.Platform)
	}
}

func TestMockPublishRejected(t *testing.T) {
	pub := NewMock(domain.PlatformFacebook, time.Second, 0.0, 0, 0, rand.New(rand.NewSource(1)))

	out := pub.Publish(context.Background(), domain.ScheduledPost{})
	if out.Succeeded {
		t.Fatalf("при successRate=0 публикация должна отклоняться")
	}
	if out.Reason != ReasonRejected {
		t.Fatalf("ожидали причину %q, получили %q", ReasonRejected, out.Reason)
	}
}

func TestMockPublishTimeoutOnSlowDelay(t *testing.T) {
	// задержка гарантированно больше таймаута
	pub := NewMock(domain.PlatformInstagram, 5*time.Millisecond, 1.0, 50*time.Millisecond, 50*time.Millisecond, rand.New(rand.NewSource(1)))

	out := pub.Publish(context.Background(), domain.ScheduledPost{})
	if out.Succeeded {
		t.Fatalf("медленная платформа должна завершаться таймаутом")
	}
	if out.Reason != ReasonTimeout {
		t.Fatalf("ожидали причину %q, получили %q", ReasonTimeout, out.Reason)
	}
}

func TestMockPublishContextCancelled(t *testing.T) {
	pub := NewMock(domain.PlatformTwitter, time.Second, 1.0, time.Second, time.Second, rand.New(rand.NewSource(1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := pub.Publish(ctx, domain.ScheduledPost{})
	if out.Succeeded {
		t.Fatalf("отменённый контекст не должен давать успех")
	}
	if out.Reason != ReasonTimeout {
		t.Fatalf("ожидали причину %q, получили %q", ReasonTimeout, out.Reason)
	}
}

func TestMockPublishDeterministicWithSeed(t *testing.T) {
	run := func() []bool {
		pub := NewMock(domain.PlatformTwitter, time.Second, 0.85, 0, 0, rand.New(rand.NewSource(42)))
		var got []bool
		for i := 0; i < 10; i++ {
			got = append(got, pub.Publish(context.Background(), domain.ScheduledPost{}).Succeeded)
		}
		return got
	}

	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("одинаковый seed должен давать одинаковую последовательность исходов")
		}
	}
}
