package model

import (
	"fmt"
	"strings"
	"time"

	"telegram-media-relay/internal/domain"
)

// ScheduleEntry maps a weekly trigger to the folder a random unsent file is taken from.
type ScheduleEntry struct {
	Name   string `yaml:"name" json:"name"`
	Cron   string `yaml:"cron" json:"cron"`
	Folder string `yaml:"folder" json:"folder"`
}

func NewScheduleEntry(name, cron, folder string) (*ScheduleEntry, error) {
	name = strings.TrimSpace(name)
	cron = strings.TrimSpace(cron)
	folder = strings.TrimSpace(folder)
	if name == "" || cron == "" || folder == "" {
		return nil, fmt.Errorf("%w: schedule entry needs name, cron and folder", domain.ErrInvalidArgument)
	}
	return &ScheduleEntry{Name: name, Cron: cron, Folder: folder}, nil
}

// ScheduleStatus is a read-only view of an entry and its next trigger.
type ScheduleStatus struct {
	ScheduleEntry
	NextRun time.Time `json:"next_run"`
	LastRun *time.Time `json:"last_run,omitempty"`
}
