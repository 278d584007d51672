package domain

import "time"

const jobKeyPrefix = "post_"

// TimerEntry — запись долговечного реестра таймеров публикации.
// На один пост существует максимум одна живая запись; ключ детерминирован.
type TimerEntry struct {
	JobKey   string
	FireTime time.Time
	// Payload хранит идентификатор поста.
	Payload string
}

// JobKeyForPost строит ключ задачи по идентификатору поста (1:1).
func JobKeyForPost(postID string) string {
	return jobKeyPrefix + postID
}
