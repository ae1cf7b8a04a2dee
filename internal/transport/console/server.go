package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrBadArguments  = errors.New("bad arguments")
)

const (
	actionMove    = "move"
	actionRestart = "restart"
	actionState   = "state"
	actionQuit    = "quit"
)

// maxLineLength bounds a single command line. Longer lines are drained and answered with an error.
const maxLineLength = 4 * 1024

type gameManager interface {
	Start(ctx context.Context) (*entity.Snapshot, error)
	MakeTurn(ctx context.Context, row, col int) (*entity.Snapshot, bool, error)
	Restart(ctx context.Context) (*entity.Snapshot, error)
	Current() *entity.Snapshot
}

// Response is written as one JSON line per command.
type Response struct {
	Action   string           `json:"action"`
	Accepted bool             `json:"accepted"`
	Snapshot *entity.Snapshot `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type handler func(ctx context.Context, args []string) (*Response, error)

// Server speaks a line protocol so a presentation layer in another process can drive a session:
//
//	move <row> <col> | <row> <col> | restart | state | quit
type Server struct {
	logger   *slog.Logger
	manager  gameManager
	handlers map[string]handler
}

func New(logger *slog.Logger, manager gameManager) *Server {
	server := &Server{
		logger:   logger.With("component", "console"),
		manager:  manager,
		handlers: make(map[string]handler),
	}

	server.handlers[actionMove] = server.handleMove
	server.handlers[actionRestart] = server.handleRestart
	server.handlers[actionState] = server.handleState

	return server
}

// Run answers commands from in until EOF, quit or ctx cancellation.
func (that *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	log := that.logger.With("method", "Run")

	snapshot, err := that.manager.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	writer := bufio.NewWriter(out)
	if err = that.write(writer, &Response{Action: actionState, Accepted: true, Snapshot: snapshot}); err != nil {
		return err
	}

	reader := bufio.NewReader(in)
	for {
		line, tooLong, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to read command: %w", err)
		}

		if err = ctx.Err(); err != nil {
			return nil
		}

		if tooLong {
			log.Warn("command line too long", "limit", maxLineLength)

			err = fmt.Errorf("%w: line exceeds %d bytes", ErrBadArguments, maxLineLength)
			if err = that.write(writer, &Response{Error: err.Error()}); err != nil {
				return err
			}

			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		action, args := parseCommand(fields)
		if action == actionQuit {
			log.Info("quit requested")
			return nil
		}

		response, err := that.dispatch(ctx, action, args)
		if err != nil {
			log.Warn("command failed", "action", action, "error", err)
			response.Error = err.Error()
		}

		if err = that.write(writer, response); err != nil {
			return err
		}
	}
}

// readLine returns the next line without its terminator. A line over maxLineLength is
// consumed up to its end and reported as too long instead of being returned.
func readLine(reader *bufio.Reader) (string, bool, error) {
	var (
		line    []byte
		tooLong bool
	)

	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			return "", false, err
		}

		if !tooLong {
			line = append(line, chunk...)
			if len(line) > maxLineLength {
				tooLong, line = true, nil
			}
		}

		if !isPrefix {
			return string(line), tooLong, nil
		}
	}
}

// parseCommand treats a bare "<row> <col>" line as a move.
func parseCommand(fields []string) (string, []string) {
	if len(fields) == 2 {
		if _, err := strconv.Atoi(fields[0]); err == nil {
			return actionMove, fields
		}
	}

	return strings.ToLower(fields[0]), fields[1:]
}

func (that *Server) dispatch(ctx context.Context, action string, args []string) (*Response, error) {
	h, ok := that.handlers[action]
	if !ok {
		return &Response{Action: action}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	response, err := h(ctx, args)
	if response == nil {
		response = &Response{Action: action}
	}

	return response, err
}

func (that *Server) handleMove(ctx context.Context, args []string) (*Response, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: move takes <row> <col>", ErrBadArguments)
	}

	row, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: row %q", ErrBadArguments, args[0])
	}

	col, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: col %q", ErrBadArguments, args[1])
	}

	snapshot, accepted, err := that.manager.MakeTurn(ctx, row, col)

	return &Response{Action: actionMove, Accepted: accepted, Snapshot: snapshot}, err
}

func (that *Server) handleRestart(ctx context.Context, _ []string) (*Response, error) {
	snapshot, err := that.manager.Restart(ctx)

	return &Response{Action: actionRestart, Accepted: true, Snapshot: snapshot}, err
}

func (that *Server) handleState(_ context.Context, _ []string) (*Response, error) {
	return &Response{Action: actionState, Accepted: true, Snapshot: that.manager.Current()}, nil
}

func (that *Server) write(writer *bufio.Writer, response *Response) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	data = append(data, '\n')
	if _, err = writer.Write(data); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	if err = writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}

	return nil
}
