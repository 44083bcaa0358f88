package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thruflo/captcha/internal/client"
	"golang.org/x/term"
)

var (
	clientAddress string
	clientAuto    bool
	clientTimeout time.Duration
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Connect to a captcha server and play challenges",
	Long: `Open a session with a running captcha server and issue commands read
from stdin, one per line:

  stats     print the success and failure counters
  math      request an arithmetic challenge, then type the sum
  evenodd   request an even/odd challenge, then type 0 (even) or 1 (odd)
            for each number
  quit      disconnect and let the server accept the next client
  shutdown  stop the server
  help      list commands

With --auto the client answers challenges itself.

Example:
  captcha client
  captcha client --address 127.0.0.1:7070
  printf 'math\nstats\nquit\n' | captcha client --auto`,
	Args: cobra.NoArgs,
	RunE: runClient,
}

func init() {
	clientCmd.Flags().StringVarP(&clientAddress, "address", "a", "", "server address (default from config)")
	clientCmd.Flags().BoolVar(&clientAuto, "auto", false, "solve challenges automatically")
	clientCmd.Flags().DurationVar(&clientTimeout, "timeout", 10*time.Second, "timeout for each server reply")
	rootCmd.AddCommand(clientCmd)
}

func runClient(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	addr := clientAddress
	if addr == "" {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		addr = cfg.ListenAddr()
	}

	dialCtx, cancel := context.WithTimeout(ctx, clientTimeout)
	c, err := client.Dial(dialCtx, addr)
	cancel()
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s. Type 'help' for commands.\n", addr)
	}

	s := &clientSession{
		client:      c,
		in:          bufio.NewScanner(cmd.InOrStdin()),
		out:         cmd.OutOrStdout(),
		interactive: interactive,
		auto:        clientAuto,
		timeout:     clientTimeout,
	}
	return s.run(ctx)
}

// errInputClosed ends a session whose input ran out while the server was
// waiting for an answer.
var errInputClosed = errors.New("input closed")

// clientSession drives one REPL over an open connection.
type clientSession struct {
	client      *client.Client
	in          *bufio.Scanner
	out         io.Writer
	interactive bool
	auto        bool
	timeout     time.Duration
}

func (s *clientSession) prompt(p string) {
	if s.interactive {
		fmt.Fprint(s.out, p)
	}
}

func (s *clientSession) replyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// run reads commands until quit, shutdown or end of input. End of input
// disconnects cleanly.
func (s *clientSession) run(ctx context.Context) error {
	for {
		s.prompt("> ")
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				s.client.Close()
				return fmt.Errorf("failed to read input: %w", err)
			}
			return s.disconnect(ctx)
		}

		line := strings.TrimSpace(s.in.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "help", "?":
			fmt.Fprintln(s.out, "commands: stats, math, evenodd, quit, shutdown, help")
		case "stats":
			if err := s.stats(ctx); err != nil {
				return err
			}
		case "math":
			if err := s.challenge(ctx, s.client.Math, client.SolveMath, "Sum: "); err != nil {
				return s.abandon(err)
			}
		case "evenodd", "even-odd", "even_odd":
			if err := s.challenge(ctx, s.client.EvenOdd, client.SolveEvenOdd, "Parities: "); err != nil {
				return s.abandon(err)
			}
		case "quit", "exit", "disconnect":
			return s.disconnect(ctx)
		case "shutdown":
			rctx, cancel := s.replyContext(ctx)
			defer cancel()
			if err := s.client.Shutdown(rctx); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Server shutting down.")
			return nil
		default:
			fmt.Fprintf(s.out, "unknown command %q (try 'help')\n", line)
		}
	}
}

func (s *clientSession) stats(ctx context.Context) error {
	rctx, cancel := s.replyContext(ctx)
	defer cancel()

	report, err := s.client.Stats(rctx)
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, report)
	return nil
}

// challenge requests a prompt, obtains an answer from the solver or the
// user, and prints the verdict.
func (s *clientSession) challenge(
	ctx context.Context,
	request func(context.Context) (string, error),
	solve func(string) (string, error),
	answerPrompt string,
) error {
	rctx, cancel := s.replyContext(ctx)
	defer cancel()

	challenge, err := request(rctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, challenge)

	var answer string
	if s.auto {
		answer, err = solve(challenge)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s%s\n", answerPrompt, strings.TrimSuffix(answer, "\n"))
	} else {
		s.prompt(answerPrompt)
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return err
			}
			return errInputClosed
		}
		answer = s.in.Text() + "\n"
	}

	actx, acancel := s.replyContext(ctx)
	defer acancel()

	ok, err := s.client.Answer(actx, answer)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(s.out, "Success")
	} else {
		fmt.Fprintln(s.out, "Failed")
	}
	return nil
}

func (s *clientSession) disconnect(ctx context.Context) error {
	rctx, cancel := s.replyContext(ctx)
	defer cancel()
	return s.client.Disconnect(rctx)
}

// abandon closes the connection without DISCONNECT, which the server
// treats as an aborted exchange.
func (s *clientSession) abandon(err error) error {
	s.client.Close()
	if errors.Is(err, errInputClosed) {
		return nil
	}
	return err
}
