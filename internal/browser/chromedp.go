// Package browser implements the tvtime browser capability on top of a
// headless Chrome driven by chromedp.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/0xsysr3ll/tvtimed/pkg/tvtime"
)

// Launcher starts headless Chrome sessions. It implements
// tvtime.BrowserLauncher.
type Launcher struct {
	// ExecPath points at the browser binary. Empty lets chromedp find
	// an installed Chrome.
	ExecPath string
}

// NewLauncher creates a launcher.
func NewLauncher(execPath string) *Launcher {
	return &Launcher{ExecPath: execPath}
}

// Launch starts a fresh headless browser process. The session lives
// until Quit is called or the launch context is cancelled.
func (l *Launcher) Launch(ctx context.Context) (tvtime.Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if l.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	cancel := func() {
		browserCancel()
		allocCancel()
	}

	// Start the process eagerly so launch failures surface here rather
	// than on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &session{ctx: browserCtx, cancel: cancel}, nil
}

// session is one running browser process. Single-use: Quit tears the
// whole process down.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *session) Navigate(_ context.Context, url string) error {
	return chromedp.Run(s.ctx, chromedp.Navigate(url))
}

func (s *session) LocalStorageItem(_ context.Context, key string) (string, error) {
	// Coalesce the null of a missing key to "" so absence is not an error.
	script := fmt.Sprintf(`window.localStorage.getItem(%q) || ""`, key)

	var value string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(script, &value)); err != nil {
		return "", fmt.Errorf("reading local storage: %w", err)
	}
	return value, nil
}

func (s *session) Quit() error {
	s.cancel()
	return nil
}
