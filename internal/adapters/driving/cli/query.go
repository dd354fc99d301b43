package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

var (
	queryTargets  []string
	queryWhere    []string
	queryOperator string
)

var queryCmd = &cobra.Command{
	Use:   "query [file]",
	Short: "Find target objects matching conditions",
	Long: `Evaluates a condition group against target objects and prints the
targets that match.

The statement is built from --target and --where flags, or read as JSON
from file (or stdin with "-"):

  trakhound query --target <uuid> --where "status = ACTIVE" --where "mode = AUTO"

Condition paths are resolved relative to each target object's path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringArrayVarP(&queryTargets, "target", "t", nil, "target object UUID (repeatable)")
	queryCmd.Flags().StringArrayVarP(&queryWhere, "where", "w", nil, `condition "path op value" (repeatable)`)
	queryCmd.Flags().StringVar(&queryOperator, "operator", "and", "how conditions combine: and, or")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	var stmt domain.Statement
	var err error
	if len(queryTargets) > 0 {
		stmt, err = statementFromFlags(queryTargets, queryWhere, queryOperator)
	} else {
		stmt, err = readStatement(cmd, args)
	}
	if err != nil {
		return err
	}

	resp := queryService.Query(context.Background(), &stmt)
	return printResponse(cmd, resp, func(o domain.Object) string { return o.Path })
}

func statementFromFlags(targets, where []string, operator string) (domain.Statement, error) {
	op, err := domain.ParseOperator(operator)
	if err != nil {
		return domain.Statement{}, err
	}
	group := &domain.ConditionGroup{ID: "root", Operator: op}
	for i, w := range where {
		c, err := parseCondition(w)
		if err != nil {
			return domain.Statement{}, err
		}
		c.ID = fmt.Sprintf("c%d", i+1)
		group.Conditions = append(group.Conditions, c)
	}
	return domain.Statement{Targets: targets, Group: group}, nil
}

// parseCondition parses "path op value". The value may contain spaces.
func parseCondition(s string) (domain.Condition, error) {
	parts := strings.SplitN(strings.TrimSpace(s), " ", 3)
	if len(parts) < 2 {
		return domain.Condition{}, fmt.Errorf("%w: condition %q: want \"path op value\"", domain.ErrInvalidInput, s)
	}
	cmp, err := domain.ParseComparison(parts[1])
	if err != nil {
		return domain.Condition{}, err
	}
	c := domain.Condition{Path: parts[0], Comparison: cmp}
	if len(parts) == 3 {
		c.Value = strings.TrimSpace(parts[2])
	}
	return c, nil
}

func readStatement(cmd *cobra.Command, args []string) (domain.Statement, error) {
	var raw []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return domain.Statement{}, fmt.Errorf("reading statement: %w", err)
	}
	var stmt domain.Statement
	if err := json.Unmarshal(raw, &stmt); err != nil {
		return domain.Statement{}, fmt.Errorf("%w: statement: %v", domain.ErrInvalidInput, err)
	}
	if err := stmt.Validate(); err != nil {
		return domain.Statement{}, fmt.Errorf("statement: %w", err)
	}
	return stmt, nil
}
