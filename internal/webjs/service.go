package webjs

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"webjs_backend/platform/apperr"
)

// Store is the read side the service needs. Satisfied by *Repository.
type Store interface {
	GetTranspiledWebSource(ctx context.Context, id int64, token string) (SourceRecord, error)
	ListSiteApps(ctx context.Context, teamToken string) ([]SiteAppSource, error)
	TeamExists(ctx context.Context, teamToken string) (bool, error)
}

// SiteApp is a servable web plugin as advertised to the browser SDK.
type SiteApp struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Service assembles injection expressions and site app listings.
type Service struct {
	store Store
}

// NewService creates a new webjs service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// WebJS returns the injection expression for plugin config id, or "" when
// token is empty or no servable source matches. Lookup errors other than a
// plain miss are returned so the caller can log them.
func (s *Service) WebJS(ctx context.Context, id int64, token string) (string, error) {
	if token == "" {
		return "", nil
	}

	rec, err := s.store.GetTranspiledWebSource(ctx, id, token)
	if errors.Is(err, ErrSourceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	config, err := ConfigFromSchema(rec.ConfigSchema, rec.Config).MarshalJSON()
	if err != nil {
		return "", err
	}

	return BuildInjection(rec.Source, config, rec.ID), nil
}

// BuildInjection formats the script that runs source with its config and the
// page's SDK instance for plugin config id.
func BuildInjection(source string, config []byte, id int64) string {
	return fmt.Sprintf("%s().inject({config:%s,posthog:window['__$$ph_web_js_%d']})", source, config, id)
}

// SiteApps lists the web plugins the team behind teamToken serves.
func (s *Service) SiteApps(ctx context.Context, teamToken string) ([]SiteApp, error) {
	exists, err := s.store.TeamExists(ctx, teamToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to look up project", err).WithOp("webjs.SiteApps")
	}
	if !exists {
		return nil, apperr.Unauthorized("project API key invalid")
	}

	sources, err := s.store.ListSiteApps(ctx, teamToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list site apps", err).WithOp("webjs.SiteApps")
	}

	apps := make([]SiteApp, 0, len(sources))
	for _, src := range sources {
		apps = append(apps, SiteApp{
			ID:  src.ID,
			URL: fmt.Sprintf("/web_js/%d/%s/%s/", src.ID, src.WebToken, siteAppHash(src)),
		})
	}
	return apps, nil
}

// siteAppHash changes whenever the source, the plugin or the config changes,
// so browsers refetch the script.
func siteAppHash(src SiteAppSource) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s-%s-%s",
		formatStamp(src.SourceUpdatedAt),
		formatStamp(src.PluginUpdatedAt),
		formatStamp(src.ConfigUpdatedAt),
	)))
	return hex.EncodeToString(sum[:])
}

// formatStamp renders t in UTC as "2006-01-02 15:04:05[.ffffff]+00:00",
// microseconds only when non-zero.
func formatStamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format("2006-01-02 15:04:05.000000-07:00")
	}
	return t.Format("2006-01-02 15:04:05-07:00")
}
