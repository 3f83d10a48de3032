package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"studybuddy/internal/quiz"
	"studybuddy/internal/study"
)

// promptAnswer reads one letter. quit is set when the user types "q".
func promptAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (index int, quit, ok bool) {
	if optionCount < 1 {
		return -1, false, false
	}

	maxLetter := byte('A' + optionCount - 1)
	fmt.Fprintf(out, "Your answer (A-%c, q to quit): ", maxLetter)

	line, err := reader.ReadString('\n')
	if err != nil {
		return -1, true, false
	}

	answer := strings.ToUpper(strings.TrimSpace(line))
	if answer == "Q" {
		return -1, true, false
	}
	idx, valid := quiz.NormalizeLetter(answer)
	if !valid || idx >= optionCount {
		return -1, false, false
	}
	return idx, false, true
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  quizzes")
	fmt.Fprintln(out, "  import [amount] [title]")
	fmt.Fprintln(out, "  play <set_id>")
	fmt.Fprintln(out, "  history [limit]")
	fmt.Fprintln(out, "  progress")
	fmt.Fprintln(out, "  chat <text>")
	fmt.Fprintln(out, "  upload <name> <bytes> [document|image]")
	fmt.Fprintln(out, "  files")
	fmt.Fprintln(out, "  voice")
	fmt.Fprintln(out, "  settings [toggle <name>]")
	fmt.Fprintln(out, "  exit")
}

func printQuestion(out io.Writer, snapshot quiz.Snapshot) {
	question := snapshot.Current
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Question %d of %d (%d%%)\n", snapshot.CurrentIndex+1, snapshot.TotalQuestions, snapshot.Progress)
	fmt.Fprintf(out, "%s\n\n", question.Question)
	for _, option := range question.Options {
		fmt.Fprintf(out, "%s. %s\n", option.Letter, option.Text)
	}
	fmt.Fprintln(out)
}

func printResult(out io.Writer, result quiz.Result) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Score: %d%%  Grade: %s\n", result.Score, result.Grade)
	fmt.Fprintf(out, "Correct: %d/%d  Time: %dm\n", result.CorrectCount, result.TotalQuestions, result.TimeSpentMinutes)
	for idx, review := range result.Review {
		mark := "x"
		if review.Correct {
			mark = "ok"
		}
		fmt.Fprintf(out, "  %d. [%s] %s\n", idx+1, mark, review.Explanation)
	}
}

func parsePositiveLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func parseUpload(args []string) (study.UploadRequest, error) {
	usage := errors.New("usage: upload <name> <bytes> [document|image]")
	if len(args) < 3 || len(args) > 4 {
		return study.UploadRequest{}, usage
	}

	size, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || size < 0 {
		return study.UploadRequest{}, usage
	}

	request := study.UploadRequest{Name: args[1], SizeBytes: size, Kind: study.KindDocument, Source: study.SourcePicker}
	if len(args) == 4 {
		switch kind := study.Kind(strings.ToLower(args[3])); kind {
		case study.KindDocument, study.KindImage:
			request.Kind = kind
		default:
			return study.UploadRequest{}, usage
		}
	}
	return request, nil
}

func formatSize(sizeMB float64) string {
	return strconv.FormatFloat(sizeMB, 'f', 1, 64) + " MB"
}

func describeError(err error) string {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound):
		return "no quiz with that id. type 'quizzes' to list them"
	case errors.Is(err, study.ErrCapabilityUnavailable):
		return "that feature needs a device with a microphone or camera"
	case errors.Is(err, quiz.ErrImportUnavailable):
		return "question import is not configured"
	default:
		return err.Error()
	}
}
