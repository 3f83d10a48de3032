// Package app assembles the services shared by the HTTP service and the CLI
// from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"studybuddy/internal/appstate"
	"studybuddy/internal/asynctask"
	"studybuddy/internal/config"
	"studybuddy/internal/contact"
	"studybuddy/internal/logger"
	"studybuddy/internal/metrics"
	"studybuddy/internal/opentdb"
	"studybuddy/internal/quiz"
	"studybuddy/internal/quiz/redisstore"
	"studybuddy/internal/quiz/sqlite"
	"studybuddy/internal/study"
)

const redisPingTimeout = 3 * time.Second

type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Metrics  *metrics.Metrics
	Platform study.Platform
	Service  *quiz.Service
	Sessions *quiz.Sessions
	Chat     *study.Chat
	Voice    *study.Voice
	Uploads  *study.Uploads
	Settings *appstate.Store
	Relay    *contact.Relay

	closers  []func() error
	watchers sync.WaitGroup
}

// New builds every service. m may be nil when no metrics are exported.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*App, error) {
	if log == nil {
		log = logger.Discard()
	}
	platform, err := study.ParsePlatform(cfg.App.Platform)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: log, Metrics: m, Platform: platform}

	sets, results, err := a.openStorage(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	tdb := opentdb.NewClient(&http.Client{Timeout: cfg.OpenTDB.Timeout}).WithBaseURL(cfg.OpenTDB.BaseURL)
	a.Service = quiz.NewService(sets, results, tdb.FetchQuestions)

	var observer quiz.SessionObserver
	if m != nil {
		observer = m
	}
	a.Sessions = quiz.NewSessions(a.Service, observer,
		quiz.WithIdleTimeout(cfg.Quiz.SessionIdleTimeout),
		quiz.WithResultRetention(cfg.Quiz.ResultRetention),
	)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	a.closers = append(a.closers, func() error { stopSweep(); return nil })
	a.watchers.Add(1)
	go func() {
		defer a.watchers.Done()
		a.Sessions.Run(sweepCtx, cfg.Quiz.SweepInterval)
	}()

	a.Settings = appstate.NewStore(appstate.DefaultSettings())
	inject := asynctask.RandomFailures(cfg.Simulation.FailureRate, 0)
	a.Chat = study.NewChat(
		study.NewRandomPool(study.TutorResponses, 0),
		asynctask.Options{Delay: cfg.Simulation.ChatDelay, Inject: inject},
	)
	a.Voice = study.NewVoice(
		platform,
		a.Settings,
		study.Fixed(study.MockVoiceAnswer),
		asynctask.Options{Delay: cfg.Simulation.VoiceDelay, Inject: inject},
	)
	a.Uploads = study.NewUploads(
		platform,
		study.Fixed(study.DefaultUploadSummary),
		asynctask.Options{Delay: cfg.Simulation.UploadDelay, Inject: inject},
	)
	a.Relay = contact.NewRelay(cfg.Contact.Endpoint, &http.Client{Timeout: cfg.Contact.Timeout})

	watch(a, "chat", a.Chat.Events)
	watch(a, "voice", a.Voice.Events)
	watch(a, "upload", a.Uploads.Events)

	log.Entry().WithFields(logrus.Fields{
		"storage":  cfg.Storage.Driver,
		"platform": platform,
	}).Info("services ready")
	return a, nil
}

func (a *App) openStorage(ctx context.Context) (quiz.QuestionSetRepository, quiz.ResultRepository, error) {
	storage := a.Config.Storage

	switch storage.Driver {
	case "sqlite":
		store, err := sqlite.NewSQLiteStore(storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := seedSample(ctx, store); err != nil {
			return nil, nil, err
		}
		return store, store, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     storage.RedisAddr,
			Password: storage.RedisPassword,
			DB:       storage.RedisDB,
		})
		a.closers = append(a.closers, client.Close)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", storage.RedisAddr, err)
		}
		return quiz.NewCatalog(quiz.SampleQuestionSet()),
			redisstore.NewHistory(client, storage.RedisKey, storage.RedisMaxEntries),
			nil

	default:
		return quiz.NewCatalog(quiz.SampleQuestionSet()), quiz.NewMemoryHistory(), nil
	}
}

// seedSample stores the built-in set unless it is already present.
func seedSample(ctx context.Context, sets quiz.QuestionSetRepository) error {
	_, err := sets.GetQuestionSet(ctx, quiz.SampleSetID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, quiz.ErrQuizNotFound) {
		return fmt.Errorf("look up sample set: %w", err)
	}
	if err := sets.SaveQuestionSet(ctx, quiz.SampleQuestionSet()); err != nil {
		return fmt.Errorf("seed sample set: %w", err)
	}
	return nil
}

// watch logs resolved tasks of one study service and counts them in metrics.
func watch[I, O any](a *App, kind string, subscribe func() (<-chan asynctask.Event[I, O], func())) {
	logEvents, stopLog := subscribe()
	a.closers = append(a.closers, func() error { stopLog(); return nil })

	a.watchers.Add(1)
	go func() {
		defer a.watchers.Done()
		for event := range logEvents {
			task := event.Task
			if task.Status == asynctask.StatusPending {
				continue
			}
			entry := a.Log.Entry().WithFields(logrus.Fields{
				"kind":    kind,
				"task_id": task.ID,
				"status":  task.Status,
			})
			if task.Status == asynctask.StatusFailed {
				entry.WithField("error", task.Error).Warn("task failed")
				continue
			}
			entry.Debug("task resolved")
		}
	}()

	if a.Metrics == nil {
		return
	}
	metricEvents, stopMetrics := subscribe()
	a.closers = append(a.closers, func() error { stopMetrics(); return nil })

	a.watchers.Add(1)
	go func() {
		defer a.watchers.Done()
		metrics.WatchTasks(a.Metrics, kind, metricEvents)
	}()
}

// Close stops the study services, waits for the event watchers and releases
// storage. It is safe to call more than once.
func (a *App) Close() error {
	if a.Chat != nil {
		a.Chat.Close()
	}
	if a.Voice != nil {
		a.Voice.Close()
	}
	if a.Uploads != nil {
		a.Uploads.Close()
	}

	var errs []error
	for idx := len(a.closers) - 1; idx >= 0; idx-- {
		if err := a.closers[idx](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.watchers.Wait()
	return errors.Join(errs...)
}
