// Package cli is the terminal front end: an interactive prompt over the quiz
// engine and the study tools.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"studybuddy/internal/appstate"
	"studybuddy/internal/quiz"
	"studybuddy/internal/study"
)

const (
	defaultHistoryLimit      = 10
	defaultMaxInvalidAnswers = 3
	defaultWaitTimeout       = 30 * time.Second
)

// Config carries the services the prompt drives. Study services may be nil;
// their commands then report that they are unavailable.
type Config struct {
	Service           *quiz.Service
	Sessions          *quiz.Sessions
	Chat              *study.Chat
	Voice             *study.Voice
	Uploads           *study.Uploads
	Settings          *appstate.Store
	MaxInvalidAnswers int
	// WaitTimeout bounds how long chat and voice wait for the tutor.
	WaitTimeout time.Duration
}

var errUnavailable = errors.New("not available in this session")

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	if cfg.Service == nil {
		return errors.New("quiz service is required")
	}
	if cfg.Sessions == nil {
		cfg.Sessions = quiz.NewSessions(cfg.Service, nil)
	}
	if cfg.MaxInvalidAnswers <= 0 {
		cfg.MaxInvalidAnswers = defaultMaxInvalidAnswers
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = defaultWaitTimeout
	}

	reader := bufio.NewReader(in)
	fmt.Fprintln(out, "studybuddy")
	fmt.Fprintln(out)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		var cmdErr error
		switch command {
		case "help":
			printHelp(out)
		case "exit", "quit":
			return nil
		case "quizzes":
			cmdErr = runQuizzes(ctx, out, cfg.Service)
		case "import":
			amount, parseErr := parsePositiveLimit(args, 1, 0)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid import amount: %v\n", parseErr)
				continue
			}
			title := ""
			if len(args) > 2 {
				title = strings.Join(args[2:], " ")
			}
			cmdErr = runImport(ctx, out, cfg.Service, title, amount)
		case "play":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: play <set_id>")
				continue
			}
			cmdErr = runPlay(ctx, reader, out, cfg.Sessions, args[1], cfg.MaxInvalidAnswers)
		case "history":
			limit, parseErr := parsePositiveLimit(args, 1, defaultHistoryLimit)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid history limit: %v\n", parseErr)
				continue
			}
			cmdErr = runHistory(ctx, out, cfg.Service, limit)
		case "progress":
			cmdErr = runProgress(ctx, out, cfg.Service)
		case "chat":
			if len(args) < 2 {
				fmt.Fprintln(out, "usage: chat <text>")
				continue
			}
			cmdErr = runChat(ctx, out, cfg.Chat, strings.TrimSpace(line[len(args[0]):]), cfg.WaitTimeout)
		case "upload":
			request, parseErr := parseUpload(args)
			if parseErr != nil {
				fmt.Fprintln(out, parseErr)
				continue
			}
			cmdErr = runUpload(out, cfg.Uploads, request)
		case "files":
			cmdErr = runFiles(out, cfg.Uploads)
		case "voice":
			cmdErr = runVoice(ctx, reader, out, cfg.Voice, cfg.WaitTimeout)
		case "settings":
			cmdErr = runSettings(out, cfg.Settings, args[1:])
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
		if cmdErr != nil {
			fmt.Fprintf(out, "error: %v\n", describeError(cmdErr))
		}
	}
}

func runQuizzes(ctx context.Context, out io.Writer, service *quiz.Service) error {
	sets, err := service.ListQuestionSets(ctx)
	if err != nil {
		return err
	}

	if len(sets) == 0 {
		fmt.Fprintln(out, "No quizzes yet. Try 'import'.")
		return nil
	}

	fmt.Fprintln(out, "Quizzes:")
	for idx, set := range sets {
		fmt.Fprintf(out, "%d. %s  %s (%d questions, %s)\n",
			idx+1,
			set.SetID,
			set.Title,
			len(set.Questions),
			set.Source,
		)
	}
	return nil
}

func runImport(ctx context.Context, out io.Writer, service *quiz.Service, title string, amount int) error {
	set, err := service.ImportQuestionSet(ctx, title, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %s: %s (%d questions)\n", set.SetID, set.Title, len(set.Questions))
	return nil
}

// runPlay walks one session to the end. Typing "q" leaves the quiz without
// recording anything; too many invalid answers do the same.
func runPlay(ctx context.Context, reader *bufio.Reader, out io.Writer, sessions *quiz.Sessions, setID string, maxInvalidAnswers int) error {
	snapshot, err := sessions.Start(ctx, setID)
	if err != nil {
		return err
	}
	sessionID := snapshot.SessionID
	fmt.Fprintf(out, "%s (%d questions)\n", snapshot.Title, snapshot.TotalQuestions)

	for snapshot.State == quiz.StateInProgress {
		printQuestion(out, snapshot)

		selected := false
		for invalid := 0; !selected; {
			answer, quit, ok := promptAnswer(reader, out, len(snapshot.Current.Options))
			if quit {
				return leaveQuiz(out, sessions, sessionID)
			}
			if ok {
				if _, err := sessions.Select(sessionID, answer); err != nil {
					return err
				}
				selected = true
				continue
			}

			invalid++
			if invalid >= maxInvalidAnswers {
				fmt.Fprintln(out, "Too many invalid answers.")
				return leaveQuiz(out, sessions, sessionID)
			}
			fmt.Fprintf(out, "Invalid input. Attempts remaining: %d\n", maxInvalidAnswers-invalid)
		}

		snapshot, err = sessions.Advance(ctx, sessionID)
		if err != nil && snapshot.State != quiz.StateCompleted {
			return err
		}
		if err != nil {
			fmt.Fprintf(out, "warning: %v\n", err)
		}
	}

	if snapshot.Result != nil {
		printResult(out, *snapshot.Result)
	}
	return sessions.Acknowledge(sessionID)
}

func leaveQuiz(out io.Writer, sessions *quiz.Sessions, sessionID string) error {
	if err := sessions.Exit(sessionID); err != nil {
		return err
	}
	fmt.Fprintln(out, "Quiz abandoned. Nothing was recorded.")
	return nil
}

func runHistory(ctx context.Context, out io.Writer, service *quiz.Service, limit int) error {
	results, err := service.History(ctx, limit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No completed quizzes yet.")
		return nil
	}

	fmt.Fprintln(out, "Recent results:")
	for idx, result := range results {
		fmt.Fprintf(out, "%d. %s score=%d%% grade=%s time=%dm completed=%s\n",
			idx+1,
			result.Title,
			result.Score,
			result.Grade,
			result.TimeSpentMinutes,
			result.CompletedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func runProgress(ctx context.Context, out io.Writer, service *quiz.Service) error {
	progress, err := service.Progress(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s, Student!\n", progress.Greeting)
	fmt.Fprintf(out, "Study streak: %d days\n", progress.StreakDays)
	fmt.Fprintf(out, "Quizzes taken: %d\n", progress.QuizzesTaken)
	if progress.QuizzesTaken == 0 {
		return nil
	}
	fmt.Fprintf(out, "Average score: %d%%\n", progress.AverageScore)
	fmt.Fprintf(out, "Best score: %d%%\n", progress.BestScore)
	fmt.Fprintf(out, "Study time: %dm\n", progress.TotalMinutes)
	return nil
}

func runChat(ctx context.Context, out io.Writer, chat *study.Chat, text string, timeout time.Duration) error {
	if chat == nil {
		return errUnavailable
	}
	if _, _, err := chat.Send(text); err != nil {
		return err
	}
	fmt.Fprintln(out, "Tutor is thinking...")

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, err := chat.WaitForReply(waitCtx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Tutor: %s\n", reply.Text)
	return nil
}

func runUpload(out io.Writer, uploads *study.Uploads, request study.UploadRequest) error {
	if uploads == nil {
		return errUnavailable
	}
	file, err := uploads.Upload(request)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Uploading %s (%s)... use 'files' to check on it.\n", file.Name, formatSize(file.SizeMB))
	return nil
}

func runFiles(out io.Writer, uploads *study.Uploads) error {
	if uploads == nil {
		return errUnavailable
	}
	files := uploads.Files()
	if len(files) == 0 {
		fmt.Fprintln(out, "No files uploaded.")
		return nil
	}

	fmt.Fprintln(out, "Files:")
	for idx, file := range files {
		fmt.Fprintf(out, "%d. %s [%s] %s %s\n", idx+1, file.Name, file.Kind, formatSize(file.SizeMB), file.Status)
		if file.Summary != "" {
			fmt.Fprintf(out, "   %s\n", file.Summary)
		}
	}
	return nil
}

func runVoice(ctx context.Context, reader *bufio.Reader, out io.Writer, voice *study.Voice, timeout time.Duration) error {
	if voice == nil {
		return errUnavailable
	}
	if err := voice.StartRecording(); err != nil {
		return err
	}

	fmt.Fprint(out, "Recording... press Enter to stop. ")
	if _, err := reader.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		voice.CancelRecording()
		return err
	}

	taskID, err := voice.StopRecording()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Processing...")

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session, err := voice.Wait(waitCtx, taskID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "You: %s\n", session.Question)
	fmt.Fprintf(out, "Tutor: %s\n", session.Answer)
	if session.Speak {
		fmt.Fprintln(out, "(read aloud)")
	}
	return nil
}

func runSettings(out io.Writer, store *appstate.Store, args []string) error {
	if store == nil {
		return errUnavailable
	}

	settings := store.Get()
	if len(args) > 0 {
		if len(args) != 2 || strings.ToLower(args[0]) != "toggle" {
			fmt.Fprintln(out, "usage: settings [toggle <name>]")
			return nil
		}
		var err error
		settings, err = store.Toggle(args[1])
		if err != nil {
			return fmt.Errorf("%w (choose from %s)", err, strings.Join(appstate.Names(), ", "))
		}
	}

	fmt.Fprintf(out, "dark_mode=%t\n", settings.DarkMode)
	fmt.Fprintf(out, "notifications=%t\n", settings.Notifications)
	fmt.Fprintf(out, "voice_responses=%t\n", settings.VoiceResponses)
	return nil
}
