package upstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/PrathamTagline/d247-be/internal/logger"
)

const sessionCookie = "g_token"

// TokenSource harvests the provider session cookie with a headless browser.
// The provider only issues g_token after the demo-login button is clicked,
// so there is no plain HTTP way to get one. Tokens are cached until their
// TTL elapses or a fetch is rejected.
type TokenSource struct {
	loginURL string
	ttl      time.Duration

	mu        sync.Mutex
	token     string
	fetchedAt time.Time
	log       *logrus.Entry
}

// NewTokenSource creates a token source for the provider login page.
func NewTokenSource(loginURL string, ttl time.Duration) *TokenSource {
	return &TokenSource{
		loginURL: loginURL,
		ttl:      ttl,
		log:      logger.WithComponent("token"),
	}
}

// Token returns the cached session cookie, refreshing it when stale.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Since(t.fetchedAt) < t.ttl {
		return t.token, nil
	}

	token, err := t.refresh(ctx)
	if err != nil {
		return "", err
	}

	t.token = token
	t.fetchedAt = time.Now()
	return token, nil
}

// Invalidate drops the cached token so the next Token call refreshes.
func (t *TokenSource) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.mu.Unlock()
}

// refresh drives a headless browser through the demo login and reads the
// session cookie. Called with t.mu held.
func (t *TokenSource) refresh(ctx context.Context) (string, error) {
	t.log.WithField("url", t.loginURL).Info("refreshing session token")

	runCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(runCtx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var cookies []*network.Cookie
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(t.loginURL),
		chromedp.Click(`//button[contains(text(), "Login with demo ID")]`, chromedp.BySearch),
		// The site sets g_token asynchronously after the login redirect.
		chromedp.Sleep(5*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return "", fmt.Errorf("demo login failed: %w", err)
	}

	for _, cookie := range cookies {
		if cookie.Name == sessionCookie {
			return fmt.Sprintf("%s=%s;", cookie.Name, cookie.Value), nil
		}
	}
	return "", fmt.Errorf("no %s cookie after login", sessionCookie)
}
