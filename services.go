package main

import (
	"context"
	"time"

	"sisgap-scraper/googlecalendar"
	"sisgap-scraper/scraper"
)

func newTimetableService() (*scraper.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}

	res := cfg.Source.Resources
	session, err := scraper.NewSession(scraper.SessionOptions{
		BaseURL: cfg.Source.BaseURL,
		Credentials: scraper.Credentials{
			Username: cfg.Source.Username,
			Password: cfg.Source.Password,
			Centre:   cfg.Source.Centre,
		},
		Resources: scraper.Resources{
			Landing:   res.Landing,
			Login:     res.Login,
			PostLogin: res.PostLogin,
			Logout:    res.Logout,
			Timetable: res.Timetable,
			Roster:    res.Roster,
		},
		UserAgent: cfg.Source.UserAgent,
		Timeout:   timeout,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	extractor := scraper.NewExtractor(cfg.Source.TableClass, cfg.Source.TableOrdinal, logger)
	return scraper.NewService(session, extractor, logger), nil
}

// dateRange resolves the --date and --lapse flags. An empty date means today.
func dateRange(date, lapse string) (time.Time, time.Time, error) {
	loc, err := cfg.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	day := time.Now().In(loc)
	if date != "" {
		day, err = scraper.ParseDate(date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	l, err := scraper.ParseLapse(lapse)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, end := scraper.Range(day, l)
	return start, end, nil
}

func eventOptions() (googlecalendar.EventOptions, error) {
	loc, err := cfg.Location()
	if err != nil {
		return googlecalendar.EventOptions{}, err
	}
	return googlecalendar.EventOptions{
		Location: loc,
		Place:    cfg.Google.Location,
		ColorID:  cfg.Google.ColorID,
	}, nil
}

func newGoogleStore(ctx context.Context) (*googlecalendar.GoogleStore, error) {
	oauthCfg, err := googlecalendar.OAuthConfig(cfg.Google.ClientSecretFile)
	if err != nil {
		return nil, err
	}
	svc, err := googlecalendar.NewService(ctx, oauthCfg, cfg.Google.TokenFile)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return googlecalendar.NewGoogleStore(svc, cfg.Google.CalendarID, loc), nil
}

// newStore returns the Google calendar, or an empty in-memory one for dry
// runs.
func newStore(ctx context.Context, dryRun bool) (googlecalendar.Store, error) {
	if dryRun {
		return googlecalendar.NewMemoryStore(), nil
	}
	return newGoogleStore(ctx)
}

// syncTimetable mirrors a fetched timetable into store for recipient.
func syncTimetable(ctx context.Context, store googlecalendar.Store, timetable scraper.Timetable, recipient string) (googlecalendar.Report, error) {
	opts, err := eventOptions()
	if err != nil {
		return googlecalendar.Report{}, err
	}
	return googlecalendar.NewSyncer(store, opts, logger).Sync(ctx, timetable, recipient)
}
