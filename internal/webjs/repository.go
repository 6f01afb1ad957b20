// Package webjs serves web plugin scripts to browsers.
// It resolves a plugin config's transpiled web.ts source, merges the
// browser-visible part of its configuration and returns an injection expression.
package webjs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// webSourceFilename is the plugin source file that holds browser code.
	webSourceFilename = "web.ts"
	// statusTranspiled marks a source file whose transpiled column is ready to serve.
	statusTranspiled = "TRANSPILED"
)

// ErrSourceNotFound means no enabled config with a transpiled web source matched.
var ErrSourceNotFound = errors.New("web source not found")

// SourceRecord is a resolved web plugin: the plugin config ID, the
// transpiled script, the plugin's config schema and the raw config.
type SourceRecord struct {
	ID           int64
	Source       string
	ConfigSchema []byte
	Config       []byte
}

// SiteAppSource is one enabled web plugin config of a team, with the
// timestamps that feed its cache-busting hash.
type SiteAppSource struct {
	ID              int64
	WebToken        string
	SourceUpdatedAt time.Time
	PluginUpdatedAt time.Time
	ConfigUpdatedAt time.Time
}

const getTranspiledWebSourceQuery = `
	SELECT pc.id, sf.transpiled, p.config_schema, pc.config
	FROM posthog_pluginconfig pc
	JOIN posthog_plugin p ON p.id = pc.plugin_id
	JOIN posthog_pluginsourcefile sf ON sf.plugin_id = p.id
	WHERE pc.id = $1
	  AND pc.web_token = $2
	  AND pc.enabled = true
	  AND sf.filename = $3
	  AND sf.status = $4
	LIMIT 1
`

const listSiteAppsQuery = `
	SELECT pc.id, pc.web_token, sf.updated_at, p.updated_at, pc.updated_at
	FROM posthog_pluginconfig pc
	JOIN posthog_team t ON t.id = pc.team_id
	JOIN posthog_plugin p ON p.id = pc.plugin_id
	JOIN posthog_pluginsourcefile sf ON sf.plugin_id = p.id
	WHERE t.api_token = $1
	  AND pc.enabled = true
	  AND pc.web_token IS NOT NULL
	  AND sf.filename = $2
	  AND sf.status = $3
	ORDER BY pc."order", pc.id
`

const teamExistsQuery = `SELECT EXISTS (SELECT 1 FROM posthog_team WHERE api_token = $1)`

// Repository reads web plugin sources from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webjs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTranspiledWebSource resolves an enabled plugin config by ID and web token.
// Returns ErrSourceNotFound when nothing matches.
func (r *Repository) GetTranspiledWebSource(ctx context.Context, id int64, token string) (SourceRecord, error) {
	var (
		rec        SourceRecord
		transpiled *string
	)
	err := r.pool.QueryRow(ctx, getTranspiledWebSourceQuery, id, token, webSourceFilename, statusTranspiled).Scan(
		&rec.ID, &transpiled, &rec.ConfigSchema, &rec.Config,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return SourceRecord{}, ErrSourceNotFound
	}
	if err != nil {
		return SourceRecord{}, fmt.Errorf("get transpiled web source %d: %w", id, err)
	}
	if transpiled != nil {
		rec.Source = *transpiled
	}
	return rec, nil
}

// ListSiteApps returns the servable web plugin configs of the team owning teamToken.
func (r *Repository) ListSiteApps(ctx context.Context, teamToken string) ([]SiteAppSource, error) {
	rows, err := r.pool.Query(ctx, listSiteAppsQuery, teamToken, webSourceFilename, statusTranspiled)
	if err != nil {
		return nil, fmt.Errorf("list site apps: %w", err)
	}
	defer rows.Close()

	var apps []SiteAppSource
	for rows.Next() {
		var app SiteAppSource
		if err := rows.Scan(
			&app.ID, &app.WebToken, &app.SourceUpdatedAt, &app.PluginUpdatedAt, &app.ConfigUpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan site app: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// TeamExists reports whether a team uses teamToken as its project API token.
func (r *Repository) TeamExists(ctx context.Context, teamToken string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, teamExistsQuery, teamToken).Scan(&exists); err != nil {
		return false, fmt.Errorf("check team: %w", err)
	}
	return exists, nil
}
