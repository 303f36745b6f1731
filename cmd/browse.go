package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/driveway/internal/browser"
	"github.com/teemow/driveway/internal/config"
	"github.com/teemow/driveway/internal/logging"
	"github.com/teemow/driveway/internal/server"
	"github.com/teemow/driveway/internal/session"
	"github.com/teemow/driveway/internal/upload"
)

func newBrowseCmd() *cobra.Command {
	var (
		authCode    string
		metricsOn   bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse drive folders interactively",
		Long: `Browse starts an interactive session against the backend proxy.

If the authorization redirect delivered a one-time code, pass it with
--auth-code; it is redeemed at most once even across restarts when a
state directory is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rt, err := newRuntime(ctx, func(cfg *config.Config) {
				// Flags take precedence over the environment.
				if cmd.Flags().Changed("metrics") {
					cfg.MetricsEnabled = metricsOn
				}
				if cmd.Flags().Changed("metrics-addr") {
					cfg.MetricsAddr = metricsAddr
				}
			})
			if err != nil {
				return err
			}
			defer rt.Close(context.WithoutCancel(ctx))

			if rt.cfg.MetricsEnabled {
				metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
					Addr:                    rt.cfg.MetricsAddr,
					InstrumentationProvider: rt.provider,
				}, rt.logger)
				if err != nil {
					return err
				}
				go func() {
					if err := metricsServer.Start(); err != nil {
						rt.logger.Error("metrics server stopped", logging.Err(err))
					}
				}()
				defer func() {
					_ = metricsServer.Shutdown(context.WithoutCancel(ctx))
				}()
			}

			out := cmd.OutOrStdout()
			ctrl, err := browser.NewController(browser.Config{
				Session:        rt.manager,
				Proxy:          rt.client,
				Notifier:       &printNotifier{out: out},
				RootFolderID:   rt.cfg.RootFolderID,
				RootFolderName: rt.cfg.RootFolderName,
				Logger:         rt.logger,
				Metrics:        rt.provider.Metrics(),
			})
			if err != nil {
				return err
			}

			if err := ctrl.Activate(ctx, authCode); err != nil {
				// Auth failures are recoverable; the user can reconnect
				// from the prompt.
				fmt.Fprintf(out, "warning: %v\n", err)
			}

			if !ctrl.Authenticated() {
				if url, err := ctrl.Connect(ctx); err == nil {
					fmt.Fprintf(out, "Not connected. Visit %s and restart with --auth-code <code>.\n", url)
				}
			} else {
				printListing(out, ctrl)
			}

			return runLoop(ctx, ctrl, cmd.InOrStdin(), out)
		},
	}

	cmd.Flags().StringVar(&authCode, "auth-code", "", "one-time authorization code from the redirect")
	cmd.Flags().BoolVar(&metricsOn, "metrics", false, "serve Prometheus metrics during the session")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "metrics listen address")

	return cmd
}

// printNotifier writes upload notifications to the interactive terminal.
type printNotifier struct {
	out io.Writer
}

func (n *printNotifier) UploadSucceeded(fileName string) {
	fmt.Fprintf(n.out, "uploaded %s\n", fileName)
}

func (n *printNotifier) BatchFailed(message string) {
	fmt.Fprintf(n.out, "upload failed: %s\n", message)
}

func runLoop(ctx context.Context, ctrl *browser.Controller, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintf(out, "%s> ", promptPath(ctrl))
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}

		if err := dispatch(ctx, ctrl, out, fields[0], fields[1:]); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if isAuthError(err) {
				fmt.Fprintln(out, "session lost, run connect to re-authorize")
			}
		}
	}
}

func dispatch(ctx context.Context, ctrl *browser.Controller, out io.Writer, command string, args []string) error {
	switch command {
	case "ls":
		printListing(out, ctrl)
		return nil

	case "open":
		if len(args) != 1 {
			return fmt.Errorf("usage: open <folder-id>")
		}
		if err := ctrl.OpenFolder(ctx, args[0]); err != nil {
			return err
		}
		printListing(out, ctrl)
		return nil

	case "back":
		if err := ctrl.Back(ctx); err != nil {
			return err
		}
		printListing(out, ctrl)
		return nil

	case "jump":
		if len(args) != 1 {
			return fmt.Errorf("usage: jump <folder-id>")
		}
		if err := ctrl.JumpTo(ctx, args[0]); err != nil {
			return err
		}
		printListing(out, ctrl)
		return nil

	case "mkdir":
		if len(args) == 0 {
			return fmt.Errorf("usage: mkdir <name>")
		}
		id, err := ctrl.CreateFolder(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created folder %s\n", id)
		return nil

	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: rm <entry-id>")
		}
		if err := ctrl.DeleteEntry(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(out, "deleted")
		return nil

	case "put":
		if len(args) == 0 {
			return fmt.Errorf("usage: put <local-handle>...")
		}
		return ctrl.Upload(ctx, filesFromHandles(args))

	case "url":
		if len(args) != 1 {
			return fmt.Errorf("usage: url <entry-id>")
		}
		url, err := ctrl.ViewerURL(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, url)
		return nil

	case "pwd":
		fmt.Fprintln(out, promptPath(ctrl))
		return nil

	case "connect":
		url, err := ctrl.Connect(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Visit %s and restart with --auth-code <code>.\n", url)
		return nil

	case "help":
		printHelp(out)
		return nil

	default:
		return fmt.Errorf("unknown command %q, try help", command)
	}
}

// filesFromHandles builds upload tasks from locally-staged file handles,
// deriving the target name and mime type from the handle's path.
func filesFromHandles(handles []string) []upload.File {
	files := make([]upload.File, 0, len(handles))
	for _, handle := range handles {
		mimeType := mime.TypeByExtension(filepath.Ext(handle))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		files = append(files, upload.File{
			LocalHandle: handle,
			Name:        filepath.Base(handle),
			MimeType:    mimeType,
		})
	}
	return files
}

func printListing(out io.Writer, ctrl *browser.Controller) {
	entries := ctrl.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}
	for _, entry := range entries {
		fmt.Fprintf(out, "%-6s  %-30s  %s\n", entry.Icon, entry.ID, entry.Name)
	}
}

func promptPath(ctrl *browser.Controller) string {
	crumbs := ctrl.Breadcrumbs()
	names := make([]string, 0, len(crumbs))
	for _, crumb := range crumbs {
		names = append(names, crumb.Name)
	}
	return strings.Join(names, " / ")
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `Commands:
  ls                 list the current folder
  open <folder-id>   descend into a folder
  back               return to the previous folder
  jump <folder-id>   jump to a breadcrumb folder
  mkdir <name>       create a folder here
  rm <entry-id>      delete an entry (no undo)
  put <handle>...    upload staged files here, in order
  url <entry-id>     print the viewer URL for an entry
  pwd                print the breadcrumb path
  connect            print the authorization URL
  quit               leave the browser
`)
}

// isAuthError reports whether an error calls for a reconnect rather than
// a retry of the same command.
func isAuthError(err error) bool {
	var redemptionErr *session.RedemptionError
	var refreshErr *session.RefreshError
	return errors.Is(err, session.ErrUnauthenticated) ||
		errors.As(err, &redemptionErr) ||
		errors.As(err, &refreshErr)
}
