package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"forum-reactor/internal/core"
	"forum-reactor/internal/stealth"
	"forum-reactor/pkg/utils"
)

// Session is one incognito browser context with a single stealth page
type Session struct {
	context *rod.Browser
	page    *rod.Page
	stealth *stealth.Stealth
	logger  *zap.Logger
	mouse   stealth.Point
}

var _ core.Session = (*Session)(nil)
var _ core.Page = (*Session)(nil)

// Page returns the session's tab
func (s *Session) Page() core.Page {
	return s
}

// SetCookies injects cookies into the browser context
func (s *Session) SetCookies(ctx context.Context, cookies []core.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	if err := s.context.Context(ctx).SetCookies(toCookieParams(cookies)); err != nil {
		return fmt.Errorf("failed to set cookies: %w", err)
	}
	return nil
}

// Cookies returns every cookie held by the browser context
func (s *Session) Cookies(ctx context.Context) ([]core.Cookie, error) {
	cookies, err := s.context.Context(ctx).GetCookies()
	if err != nil {
		return nil, fmt.Errorf("failed to get cookies: %w", err)
	}
	return fromNetworkCookies(cookies), nil
}

// Close disposes the incognito context together with its page
func (s *Session) Close() error {
	if err := s.context.Close(); err != nil {
		return fmt.Errorf("failed to close browser context: %w", err)
	}
	return nil
}

// Navigate loads url and waits until the network is almost idle
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.page.Context(navCtx)
	wait := p.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := p.Navigate(url); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %w", core.ErrNavigation, url, err)
	}
	wait()

	if navCtx.Err() != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: not settled within %s", core.ErrNavigation, url, timeout)
	}
	return nil
}

// CurrentURL returns the URL the tab is on
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to get page info: %w", err)
	}
	return info.URL, nil
}

// ElementExists checks for a matching element without waiting
func (s *Session) ElementExists(ctx context.Context, selector string) (bool, error) {
	has, _, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	return has, nil
}

// ButtonTexts returns the rendered text of every button on the page
func (s *Session) ButtonTexts(ctx context.Context) ([]string, error) {
	res, err := s.page.Context(ctx).Eval(`() => Array.from(document.querySelectorAll('button')).map(b => b.innerText || '')`)
	if err != nil {
		return nil, fmt.Errorf("failed to read button texts: %w", err)
	}

	items := res.Value.Arr()
	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, item.Str())
	}
	return texts, nil
}

// BodyText returns the rendered text of the document body
func (s *Session) BodyText(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.body ? document.body.innerText : ''`)
	if err != nil {
		return "", fmt.Errorf("failed to read body text: %w", err)
	}
	return res.Value.Str(), nil
}

// HTML returns the full markup of the current page
func (s *Session) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return html, nil
}

// Type focuses the element with a mouse click and types text following a stealth plan
func (s *Session) Type(ctx context.Context, selector, text string) error {
	elem, err := s.element(ctx, selector)
	if err != nil {
		return err
	}

	if err := s.humanClick(ctx, elem); err != nil {
		return fmt.Errorf("failed to focus %s: %w", selector, err)
	}

	actions, err := s.stealth.TypingPlan(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to generate typing actions: %w", err)
	}

	for _, action := range actions {
		switch action.Type {
		case stealth.ActionTypeKey:
			if err := elem.Context(ctx).Input(action.Key); err != nil {
				return fmt.Errorf("failed to input key: %w", err)
			}
		case stealth.ActionTypeBackspace:
			if err := s.page.Keyboard.Press(input.Backspace); err != nil {
				return fmt.Errorf("failed to press backspace: %w", err)
			}
		}

		if err := utils.Sleep(ctx, action.Delay); err != nil {
			return err
		}
	}

	return nil
}

// Click clicks the element and waits for the document response it triggers
func (s *Session) Click(ctx context.Context, selector string, timeout time.Duration) (*core.NavigationResponse, error) {
	elem, err := s.element(ctx, selector)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Subscribe before clicking so a fast response is not missed
	var resp *core.NavigationResponse
	p := s.page.Context(waitCtx)
	wait := p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument || e.Response == nil {
			return false
		}
		if e.FrameID != "" && e.FrameID != s.page.FrameID {
			return false
		}
		resp = &core.NavigationResponse{
			Status:     e.Response.Status,
			StatusText: e.Response.StatusText,
			URL:        e.Response.URL,
		}
		return true
	})

	if err := s.humanClick(ctx, elem); err != nil {
		return nil, fmt.Errorf("failed to click %s: %w", selector, err)
	}
	wait()

	if resp == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w after clicking %s within %s", core.ErrNoNavigation, selector, timeout)
	}

	if err := p.WaitLoad(); err != nil {
		s.logger.Debug("Page did not finish loading after click", zap.String("url", resp.URL), zap.Error(err))
	}
	return resp, nil
}

func (s *Session) element(ctx context.Context, selector string) (*rod.Element, error) {
	has, elem, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("element not found: %s", selector)
	}
	return elem, nil
}

// humanClick moves the cursor along a curved path and presses the left button using CDP
// input events, which the page sees as trusted
func (s *Session) humanClick(ctx context.Context, elem *rod.Element) error {
	if err := elem.Context(ctx).ScrollIntoView(); err != nil {
		return fmt.Errorf("failed to scroll element into view: %w", err)
	}

	res, err := elem.Context(ctx).Eval(`() => {
const rect = this.getBoundingClientRect();
return {x: rect.left + rect.width / 2, y: rect.top + rect.height / 2, w: rect.width, h: rect.height};
}`)
	if err != nil {
		return fmt.Errorf("failed to get element position: %w", err)
	}

	var box struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		W float64 `json:"w"`
		H float64 `json:"h"`
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal element position: %w", err)
	}
	if err := json.Unmarshal(raw, &box); err != nil {
		return fmt.Errorf("failed to parse element position: %w", err)
	}

	// Aim somewhere inside the middle 40% of the element
	target := stealth.Point{
		X: box.X + (rand.Float64()-0.5)*box.W*0.4,
		Y: box.Y + (rand.Float64()-0.5)*box.H*0.4,
	}

	page := s.page.Context(ctx)
	for _, p := range s.stealth.MousePath(s.mouse, target) {
		err := proto.InputDispatchMouseEvent{
			Type: proto.InputDispatchMouseEventTypeMouseMoved,
			X:    p.X,
			Y:    p.Y,
		}.Call(page)
		if err != nil {
			s.logger.Debug("Failed to move mouse", zap.Error(err))
		}
		if err := utils.Sleep(ctx, s.stealth.StepDelay()); err != nil {
			return err
		}
	}
	s.mouse = target

	s.stealth.Pause(ctx, 0.1, 0.2)

	err = proto.InputDispatchMouseEvent{
		Type:       proto.InputDispatchMouseEventTypeMousePressed,
		X:          target.X,
		Y:          target.Y,
		Button:     proto.InputMouseButtonLeft,
		ClickCount: 1,
	}.Call(page)
	if err != nil {
		return fmt.Errorf("failed to mouse down: %w", err)
	}

	s.stealth.Pause(ctx, 0.05, 0.1)

	err = proto.InputDispatchMouseEvent{
		Type:       proto.InputDispatchMouseEventTypeMouseReleased,
		X:          target.X,
		Y:          target.Y,
		Button:     proto.InputMouseButtonLeft,
		ClickCount: 1,
	}.Call(page)
	if err != nil {
		return fmt.Errorf("failed to mouse up: %w", err)
	}

	return nil
}
