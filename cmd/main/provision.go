package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/voice-receptionist/internal/storage"
	"gitlab.com/timkado/api/voice-receptionist/internal/usecase"
	"gitlab.com/timkado/api/voice-receptionist/pkg/logger"
)

var (
	provisionFile string
	provisionReq  usecase.ProvisionRequest
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create a voice configuration for a tenant phone number",
	Long: `Create a voice configuration and, optionally, its service catalog.

Examples:
  voice-receptionist provision --tenant-id acme --phone +15550100000 --business "Acme Med Spa" --assistant Ava
  voice-receptionist provision --file tenant.json`,
	RunE: runProvision,
}

func init() {
	f := provisionCmd.Flags()
	f.StringVarP(&provisionFile, "file", "f", "", "JSON provisioning request; flags are ignored when set")
	f.StringVar(&provisionReq.TenantID, "tenant-id", "", "tenant identifier")
	f.StringVar(&provisionReq.PhoneNumber, "phone", "", "destination number in E.164 form")
	f.StringVar(&provisionReq.PhoneNumberID, "phone-id", "", "provider phone number id")
	f.StringVar(&provisionReq.BusinessName, "business", "", "business name")
	f.StringVar(&provisionReq.AssistantName, "assistant", "", "assistant name")
	f.StringVar(&provisionReq.Greeting, "greeting", "", "first message after the introduction")
	f.StringVar(&provisionReq.Timezone, "timezone", "", "IANA timezone of the business")
	f.StringVar(&provisionReq.VoiceID, "voice-id", "", "text-to-speech voice id")
	f.BoolVar(&provisionReq.Disabled, "disabled", false, "create the configuration disabled")
}

func runProvision(cmd *cobra.Command, args []string) error {
	req := provisionReq
	if provisionFile != "" {
		loaded, err := readProvisionFile(provisionFile)
		if err != nil {
			return err
		}
		req = loaded
	}

	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	repo, err := initRepo(cfg, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	defer func() {
		if err := repo.Close(ctx); err != nil {
			logger.Log.Warn("Failed to close database", zap.Error(err))
		}
	}()

	provisioner := usecase.NewProvisioner(
		storage.NewVoiceConfigRepoAdapter(repo),
		storage.NewServiceRepoAdapter(repo),
	)
	created, err := provisioner.ProvisionVoiceConfig(ctx, req)
	if err != nil {
		return fmt.Errorf("provisioning failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Provisioned %s for tenant %s (id %d, %d services)\n",
		created.PhoneNumber, created.TenantID, created.ID, len(req.Services))
	return nil
}

func readProvisionFile(path string) (usecase.ProvisionRequest, error) {
	var req usecase.ProvisionRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return req, nil
}
