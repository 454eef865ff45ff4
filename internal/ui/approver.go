package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/pgplan/internal/checksum"
	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// Approver confirms a deployment before it touches the target.
type Approver interface {
	RequestApproval(ctx context.Context, database string, plan *pgplan.Plan) (bool, error)
}

// InteractiveApprover asks the operator to type the database name before
// a plan is applied.
type InteractiveApprover struct {
	in  io.Reader
	out io.Writer
}

// NewInteractiveApprover prompts on stderr and reads stdin.
func NewInteractiveApprover() *InteractiveApprover {
	return &InteractiveApprover{in: os.Stdin, out: os.Stderr}
}

// RequestApproval prompts the user to type the database name to confirm.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, database string, plan *pgplan.Plan) (bool, error) {
	fmt.Fprintf(a.out, "\n⚠️  About to apply %d step(s) (%d deferred constraint(s)) to database '%s'\n",
		plan.Len(), len(plan.Deferred()), database)
	fmt.Fprintf(a.out, "Plan fingerprint: %s\n", checksum.Short(plan.Fingerprint()))
	fmt.Fprintf(a.out, "\nTo confirm, type the database name '%s' and press Enter: ", database)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.in)
		input, err := reader.ReadString('\n')
		if err != nil && !(err == io.EOF && input != "") {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == database {
			fmt.Fprintln(a.out, "✓ Confirmed. Proceeding with deployment...")
			return true, nil
		}
		fmt.Fprintf(a.out, "✗ Input '%s' does not match database name '%s'. Deployment cancelled.\n", input, database)
		return false, nil
	}
}

// AutoApprover approves without prompting (--yes, non-interactive runs).
type AutoApprover struct{}

func (AutoApprover) RequestApproval(context.Context, string, *pgplan.Plan) (bool, error) {
	return true, nil
}

var (
	_ Approver = (*InteractiveApprover)(nil)
	_ Approver = AutoApprover{}
)
