// Command qchauctl manages QchauCoin keys locally and signs and submits
// transfers to a ledger server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qchaucoin/ledger/internal/client"
	"github.com/qchaucoin/ledger/internal/common"
	"github.com/qchaucoin/ledger/internal/crypto"
	"github.com/qchaucoin/ledger/internal/ledger"
	"github.com/qchaucoin/ledger/internal/model"

	"github.com/spf13/cobra"
)

var (
	serverURL    string
	keyFile      string
	keystoreFile string
	outFile      string
	recipient    string
	amount       string
	email        string

	// keystoreParams are used for keystores written by this tool.
	keystoreParams = crypto.LocalScrypt
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "ledger server URL")

	keygenCmd.Flags().StringVar(&outFile, "out", "", "write the private key PEM to this file")
	keygenCmd.Flags().StringVar(&keystoreFile, "keystore", "", "write the private key as an encrypted keystore to this file")

	for _, c := range []*cobra.Command{signCmd, sendCmd} {
		c.Flags().StringVar(&keyFile, "key", "", "private key PEM file")
		c.Flags().StringVar(&keystoreFile, "keystore", "", "encrypted keystore file")
		c.Flags().StringVar(&recipient, "to", "", "recipient public key, or a file containing it")
		c.Flags().StringVar(&amount, "amount", "", "amount to transfer")
		c.MarkFlagRequired("to")
		c.MarkFlagRequired("amount")
	}
	sendCmd.Flags().StringVar(&email, "email", "", "account email used to log in")
	sendCmd.MarkFlagRequired("email")

	rekeyCmd.Flags().StringVar(&keystoreFile, "keystore", "", "keystore file to re-encrypt")
	rekeyCmd.Flags().StringVar(&outFile, "out", "", "new keystore file")
	rekeyCmd.MarkFlagRequired("keystore")
	rekeyCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(keygenCmd, signCmd, sendCmd, verifyChainCmd, rekeyCmd)
}

var rootCmd = &cobra.Command{
	Use:           "qchauctl",
	Short:         "QchauCoin key and transfer tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "generate an RSA key pair locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outFile == "" && keystoreFile == "" {
			return fmt.Errorf("one of --out or --keystore is required")
		}
		kp, err := crypto.GenerateKeyPair()
		if err != nil {
			return err
		}
		if outFile != "" {
			if err := writeNewFile(outFile, []byte(kp.PrivateKeyPEM)); err != nil {
				return err
			}
		}
		if keystoreFile != "" {
			password, err := readSecret("New keystore password: ")
			if err != nil {
				return err
			}
			defer clear(password)
			ks, err := crypto.SealPrivateKey(kp.PrivateKeyPEM, crypto.Canonicalize(kp.PublicKeyPEM), password, keystoreParams)
			if err != nil {
				return err
			}
			if err := crypto.WriteKeystoreFile(keystoreFile, ks); err != nil {
				return err
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), kp.PublicKeyPEM)
		return nil
	},
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "sign a transfer and print the request body",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildTransfer()
		if err != nil {
			return err
		}
		return printJSON(cmd, req)
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "log in, sign and submit a transfer",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildTransfer()
		if err != nil {
			return err
		}

		password, err := readSecret("Account password: ")
		if err != nil {
			return err
		}
		defer clear(password)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		ctx, cancelTimeout := context.WithTimeout(ctx, time.Minute)
		defer cancelTimeout()

		c := client.NewLedgerClient(serverURL)
		if _, err := c.Login(ctx, email, string(password)); err != nil {
			return err
		}
		resp, err := c.Transfer(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	},
}

var verifyChainCmd = &cobra.Command{
	Use:   "verify-chain",
	Short: "download the chain and verify every hash and link",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		chain, err := client.NewLedgerClient(serverURL).Chain(ctx)
		if err != nil {
			return err
		}
		result := verifyBlocks(chain.Blocks)
		if err := printJSON(cmd, result); err != nil {
			return err
		}
		if !result.Valid {
			return fmt.Errorf("chain is invalid")
		}
		return nil
	},
}

var rekeyCmd = &cobra.Command{
	Use:   "rekey",
	Short: "re-encrypt a keystore with a new password",
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := crypto.ReadKeystoreFile(keystoreFile)
		if err != nil {
			return err
		}
		oldPassword, err := readSecret("Current keystore password: ")
		if err != nil {
			return err
		}
		defer clear(oldPassword)
		newPassword, err := readSecret("New keystore password: ")
		if err != nil {
			return err
		}
		defer clear(newPassword)

		resealed, err := rekey(ks, oldPassword, newPassword)
		if err != nil {
			return err
		}
		return crypto.WriteKeystoreFile(outFile, resealed)
	},
}

// buildTransfer loads the signing key and signs the transfer given by flags.
func buildTransfer() (*model.TransferRequest, error) {
	privateKey, err := loadPrivateKey(keyFile, keystoreFile)
	if err != nil {
		return nil, err
	}
	to, err := resolveKey(recipient)
	if err != nil {
		return nil, err
	}
	return signTransfer(privateKey, to, amount)
}

func signTransfer(privateKeyPEM, to, amountStr string) (*model.TransferRequest, error) {
	value, err := common.ParseAmount(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	from, err := crypto.PublicKeyOf(privateKeyPEM)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(crypto.BuildCanonicalMessage(from, to, value), privateKeyPEM)
	if err != nil {
		return nil, err
	}
	return &model.TransferRequest{
		SenderPublicKey:    from,
		RecipientPublicKey: to,
		Amount:             common.FormatAmount(value),
		Signature:          sig,
	}, nil
}

func verifyBlocks(blocks []model.Block) *model.ChainVerifyResponse {
	result := &model.ChainVerifyResponse{Valid: true, Height: uint64(len(blocks))}
	if len(blocks) > 0 {
		result.Head = blocks[len(blocks)-1].Hash
	}
	if err := ledger.VerifyChain(blocks); err != nil {
		result.Valid = false
		result.Error = err.Error()
	}
	return result
}

func rekey(ks *model.Keystore, oldPassword, newPassword []byte) (*model.Keystore, error) {
	data, err := crypto.OpenKeystore(ks, oldPassword)
	if err != nil {
		return nil, err
	}
	defer clear(data.PrivateKey)
	return crypto.SealPrivateKey(string(data.PrivateKey), ks.Identity, newPassword, keystoreParams)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
