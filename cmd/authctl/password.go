package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/security"
)

func passwordCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password hashing helpers",
	}
	cmd.AddCommand(passwordHashCmd(load))
	return cmd
}

func passwordHashCmd(load configLoader) *cobra.Command {
	var (
		email     string
		allowWeak bool
	)

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Read a password from stdin and print its argon2id hash",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("password expected on stdin")
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return errors.New("password must not be empty")
			}
			if !allowWeak {
				if err := security.DefaultStrengthPolicy().Check(password, email); err != nil {
					return err
				}
			}

			hash, err := security.HashPassword(password, security.Argon2Config{
				Memory:      cfg.Argon2.Memory,
				Iterations:  cfg.Argon2.Iterations,
				Parallelism: cfg.Argon2.Parallelism,
				SaltLength:  cfg.Argon2.SaltLength,
				KeyLength:   cfg.Argon2.KeyLength,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email, penalised by the strength check")
	cmd.Flags().BoolVar(&allowWeak, "allow-weak", false, "skip the strength check")
	return cmd
}
