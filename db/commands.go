package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"

	// fixed width so that rows sort by time as text
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"
)

// Command is one journalled request against the component tree.
type Command struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Source string    `json:"source"`
	Method string    `json:"method"`
	Path   string    `json:"path"`
	Status int       `json:"status"`
}

// RecordCommand appends a command to the journal and returns its id.
func RecordCommand(ctx context.Context, db *sql.DB, source, method, path string, status int) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO commands (id, at, source, method, path, status) VALUES (?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(timeFormat), source, method, path, status)
	if err != nil {
		return "", fmt.Errorf("failed to record command %s: %w", path, err)
	}
	return id, nil
}

// RecentCommands returns up to limit commands, newest first.
func RecentCommands(ctx context.Context, db *sql.DB, limit int) ([]Command, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, at, source, method, path, status FROM commands ORDER BY at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	var commands []Command
	for rows.Next() {
		var c Command
		var at string
		if err := rows.Scan(&c.ID, &at, &c.Source, &c.Method, &c.Path, &c.Status); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		c.At, err = time.Parse(timeFormat, at)
		if err != nil {
			return nil, fmt.Errorf("failed to parse command time %q: %w", at, err)
		}
		commands = append(commands, c)
	}
	return commands, rows.Err()
}
