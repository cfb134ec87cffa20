package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/ipcrypt"
	"github.com/goliatone/go-survey-collector/pkg/useragent"
)

func newEncryptCmd() *cobra.Command {
	var key, version string
	cmd := &cobra.Command{
		Use:   "encrypt <ip>",
		Short: "Encrypt an IP address the way survey fields store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ipcrypt.New(key, version)
			if err != nil {
				return err
			}
			v, err := c.Encrypt(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "encryption key")
	cmd.Flags().StringVar(&version, "key-version", ipcrypt.DefaultVersion, "key version stamped on the value")
	return cmd
}

func newDecryptCmd() *cobra.Command {
	var key, version string
	cmd := &cobra.Command{
		Use:   "decrypt <value>",
		Short: "Decrypt an encrypted IP value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ipcrypt.New(key, version)
			if err != nil {
				return err
			}
			ip, v, err := c.DecryptString(args[0])
			if err != nil {
				return err
			}
			if v.Version != c.Version() && v.Version != ipcrypt.UnknownVersion {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: value encrypted with key version %s, current is %s\n", v.Version, c.Version())
			}
			fmt.Fprintln(cmd.OutOrStdout(), ip)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "encryption key")
	cmd.Flags().StringVar(&version, "key-version", ipcrypt.DefaultVersion, "current key version")
	return cmd
}

func newUACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ua <user-agent>",
		Short: "Show how a User-Agent header is classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info := useragent.Parse(strings.Join(args, " "))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}

func newTagsCmd() *cobra.Command {
	var family string
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the supported action tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, tag := range capabilities.Tags() {
				option, _ := capabilities.Lookup(tag)
				fam := capabilities.FamilyOf(option)
				if family != "" && !strings.EqualFold(string(fam), family) {
					continue
				}
				fmt.Fprintf(out, "%-28s %-20s %s\n", tag, option, fam)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "only list tags of this family (identity, geolocation, email, phone)")
	return cmd
}
