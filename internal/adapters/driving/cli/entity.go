package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

var emptyBefore int64

var readCmd = &cobra.Command{
	Use:   "read <type> <uuid>...",
	Short: "Read entities by UUID",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRead,
}

var objectsCmd = &cobra.Command{
	Use:   "objects <type> <object-uuid>...",
	Short: "List the entities owned by objects",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runObjects,
}

var publishCmd = &cobra.Command{
	Use:   "publish <type> [file]",
	Short: "Publish entities from a JSON array",
	Long: `Publishes a JSON array of entities of the given type. The array is read
from file, or from stdin when file is omitted or "-".`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPublish,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <type> <uuid>...",
	Short: "Delete entities by UUID",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runDelete,
}

var emptyCmd = &cobra.Command{
	Use:   "empty <type> <object-uuid>...",
	Short: "Remove every entity owned by objects",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runEmpty,
}

func init() {
	emptyCmd.Flags().Int64Var(&emptyBefore, "before", 0, "only remove entities created before this Unix time in ms")
	rootCmd.AddCommand(readCmd, objectsCmd, publishCmd, deleteCmd, emptyCmd)
}

func requireEntityService() error {
	if entityService == nil {
		return errors.New("entity service not configured")
	}
	return nil
}


func runRead(cmd *cobra.Command, args []string) error {
	if err := requireEntityService(); err != nil {
		return err
	}
	t, err := domain.ParseEntityType(args[0])
	if err != nil {
		return err
	}
	resp, err := entityService.Read(context.Background(), t, args[1:])
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	return printResponse(cmd, resp, describe)
}

func runObjects(cmd *cobra.Command, args []string) error {
	if err := requireEntityService(); err != nil {
		return err
	}
	t, err := domain.ParseEntityType(args[0])
	if err != nil {
		return err
	}
	resp, err := entityService.QueryByObject(context.Background(), t, args[1:])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return printResponse(cmd, resp, describe)
}

func runPublish(cmd *cobra.Command, args []string) error {
	if err := requireEntityService(); err != nil {
		return err
	}
	t, err := domain.ParseEntityType(args[0])
	if err != nil {
		return err
	}

	var payload []byte
	if len(args) == 1 || args[1] == "-" {
		payload, err = io.ReadAll(cmd.InOrStdin())
	} else {
		payload, err = os.ReadFile(args[1])
	}
	if err != nil {
		return fmt.Errorf("reading entities: %w", err)
	}

	resp, err := entityService.Publish(context.Background(), t, payload)
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return printResponse(cmd, resp, func(r domain.PublishResult[domain.Entity]) string {
		return string(r.Operation)
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := requireEntityService(); err != nil {
		return err
	}
	t, err := domain.ParseEntityType(args[0])
	if err != nil {
		return err
	}
	requests := make([]domain.EntityDeleteRequest, 0, len(args)-1)
	for _, id := range args[1:] {
		requests = append(requests, domain.EntityDeleteRequest{Target: id})
	}
	resp, err := entityService.Delete(context.Background(), t, requests)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return printResponse(cmd, resp, nil)
}

func runEmpty(cmd *cobra.Command, args []string) error {
	if err := requireEntityService(); err != nil {
		return err
	}
	t, err := domain.ParseEntityType(args[0])
	if err != nil {
		return err
	}
	requests := make([]domain.EntityEmptyRequest, 0, len(args)-1)
	for _, id := range args[1:] {
		requests = append(requests, domain.EntityEmptyRequest{EntityUUID: id, Before: emptyBefore})
	}
	resp, err := entityService.Empty(context.Background(), t, requests)
	if err != nil {
		return fmt.Errorf("empty failed: %w", err)
	}
	return printResponse(cmd, resp, nil)
}
