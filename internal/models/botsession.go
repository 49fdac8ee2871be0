package models

import "time"

// BotSessionStatus статус сессии бота.
type BotSessionStatus string

const (
	SessionActive BotSessionStatus = "active"
	SessionEnded  BotSessionStatus = "ended"
)

// BotSession один запуск бота пользователем.
type BotSession struct {
	ID           int64            `db:"id" json:"id"`
	UserID       int64            `db:"user_id" json:"userId"`
	SessionStart time.Time        `db:"session_start" json:"sessionStart"`
	SessionEnd   *time.Time       `db:"session_end" json:"sessionEnd"`
	FishCaught   int              `db:"fish_caught" json:"fishCaught"`
	SkillsUsed   int              `db:"skills_used" json:"skillsUsed"`
	Status       BotSessionStatus `db:"status" json:"status"`
}
