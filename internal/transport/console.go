package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"raidbot/internal/bot"
)

// Console is the offline transport: it reads commands from an input stream
// and prints replies, so the bot is usable without a telegram token.
type Console struct {
	handler    *bot.Handler
	in         io.Reader
	out        io.Writer
	telegramID int64
	logger     *logrus.Logger
}

func NewConsole(handler *bot.Handler, in io.Reader, out io.Writer, telegramID int64, logger *logrus.Logger) *Console {
	return &Console{
		handler:    handler,
		in:         in,
		out:        out,
		telegramID: telegramID,
		logger:     logger,
	}
}

func (c *Console) Run(ctx context.Context) error {
	c.logger.Infof("console transport started, acting as telegram id %d", c.telegramID)
	fmt.Fprintln(c.out, "raidbot offline console. Type /help to begin.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			reply := c.handler.HandleCommand(ctx, bot.IncomingMessage{
				TelegramID:  c.telegramID,
				DisplayName: "console",
				Text:        line,
			})
			fmt.Fprintln(c.out, reply)
		}
	}
}
