// Command verify drives one unlock session end to end against a running
// server: cooldown pre-check, code send, interactive code entry, unlock.
// Meant for smoke-testing the flow without a browser.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/Gantur-Enbotics/xmas-2025/internal/config"
	"github.com/Gantur-Enbotics/xmas-2025/internal/provider"
	"github.com/Gantur-Enbotics/xmas-2025/internal/verifier"
	"github.com/Gantur-Enbotics/xmas-2025/pkg/logger"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "unlock gateway base URL")
		phone     = flag.String("phone", "", `phone in canonical format, e.g. "+976 99112233"`)
		inProc    = flag.Bool("in-process", false, "keep verification state in memory instead of redis")
	)
	flag.Parse()

	if *phone == "" {
		fmt.Fprintln(os.Stderr, "usage: verify -phone \"+976 99112233\" [-server URL]")
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	if err := logger.Init(""); err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sms := provider.NewSMSClient(cfg.SMS.APIKey, cfg.SMS.SenderID, cfg.SMS.BaseURL, cfg.SMS.DryRun)
	opts := []provider.Option{
		provider.WithCodeTTL(cfg.Verification.CodeTTL()),
		provider.WithChallengeTTL(cfg.Verification.ChallengeTTL()),
	}

	var p provider.Provider
	if *inProc {
		p = provider.NewInProcessProvider(sms, opts...)
	} else {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		p = provider.NewSMSProvider(client, sms, opts...)
	}

	ctx := context.Background()
	session := verifier.NewSession(*phone, verifier.NewGatewayClient(*serverURL), p)
	defer session.Close(ctx)

	if err := session.Open(ctx); err != nil {
		fail(session, err)
	}
	if session.Phase() == verifier.PhaseFailed {
		fail(session, nil)
	}

	fmt.Println("Code sent. Enter the 6-digit code, or 'resend' / 'cancel':")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "cancel":
			session.Close(ctx)
			fmt.Println("Cancelled.")
			return
		case "resend":
			if err := session.Resend(ctx); err != nil {
				fail(session, err)
			}
			if session.Phase() == verifier.PhaseFailed {
				fail(session, nil)
			}
			fmt.Println("Code re-sent.")
			continue
		}

		letter, err := session.SubmitCode(ctx, input)
		if err != nil {
			if session.Phase() == verifier.PhaseAwaitingCode {
				fmt.Println("Wrong code, try again:")
				continue
			}
			fail(session, err)
		}

		fmt.Printf("\n=== %s ===\n%s\n", letter.Title, letter.Context)
		if letter.ExtraNote != "" {
			fmt.Printf("\n%s\n", letter.ExtraNote)
		}
		for _, a := range letter.Attachments {
			fmt.Printf("attachment: %s %s\n", a.Kind, a.Filename)
		}
		return
	}
}

func fail(session *verifier.Session, err error) {
	if reason := session.Reason(); reason != verifier.ReasonNone {
		fmt.Fprintln(os.Stderr, "verification failed:", reason)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, "verification failed:", err)
	}
	os.Exit(1)
}
