package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"github.com/newsflow-kr/newsflow/internal/config"
	"github.com/newsflow-kr/newsflow/internal/fetcher"
	"github.com/newsflow-kr/newsflow/internal/types"
)

const (
	loginURL     = "https://nid.naver.com/nidlogin.login"
	writeFormURL = "https://blog.naver.com/GoBlogWrite.naver"

	editorFrameSel = "#mainFrame"
	popupSel       = "div.se-popup-alert-confirm"
	popupButtonSel = "span.se-popup-button-text"
	helpPanelSel   = ".se-help-panel.se-is-on"
	helpCloseSel   = "button.se-help-panel-close-button, .se-help-panel-close-button"
	helpNextSel    = "button.slick-next"

	titleEditableSel   = "div.se-section-documentTitle [contenteditable='true']"
	contentEditableSel = "div.se-section:not(.se-section-documentTitle) [contenteditable='true']"
	anyEditableSel     = "[contenteditable='true']"
	legacyTitleSel     = "input[placeholder='제목을 입력하세요']"
	placeholderSel     = "span.se-placeholder"
	contentPlaceholder = "최근 다녀온 곳을 지도와 함께 기록해보세요"

	publishOpenSel    = "div.publish_btn_area__KjA2i button.publish_btn__m9KHH, [data-click-area='tpb.publish']"
	publishConfirmSel = `[data-testid="seOnePublishBtn"], button.confirm_btn__WEaBq, [data-click-area="tpb*i.publish"]`
)

// Optional elements (popups, help panels, alternate editors) get a short
// deadline so a missing one does not stall the whole step.
const probeTimeout = 2 * time.Second

// Publisher drives the Naver blog editor to republish stored records.
// The whole flow runs sequentially in one browser session.
type Publisher struct {
	session  *fetcher.BrowserSession
	cfg      *config.Config
	logger   *slog.Logger
	resolver *Resolver
}

// New creates a Publisher over an existing browser session.
func New(session *fetcher.BrowserSession, cfg *config.Config, logger *slog.Logger) *Publisher {
	return &Publisher{
		session:  session,
		cfg:      cfg,
		logger:   logger.With("component", "publisher"),
		resolver: NewResolver(session, &cfg.Browser, logger),
	}
}

// PostBatch logs in once and publishes up to the configured batch cap
// (a self-imposed rate limit against the destination platform). The
// result maps record IDs to confirmed post URLs; records whose canonical
// URL never resolved are absent. Missing credentials fail the whole
// batch before any browser work starts.
func (p *Publisher) PostBatch(ctx context.Context, records []types.NewsRecord) (types.PublishResults, error) {
	if p.cfg.Naver.ID == "" || p.cfg.Naver.Password == "" {
		return nil, types.ErrMissingCredentials
	}

	if max := p.cfg.Naver.BatchMax; len(records) > max {
		records = records[:max]
	}

	log := p.logger.With("run_id", uuid.NewString()[:8])
	log.Info("publish batch starting", "records", len(records))

	page, err := p.login(ctx)
	if err != nil {
		return nil, &types.PublishError{Step: "login", Err: err}
	}
	defer page.Close()

	results := make(types.PublishResults)
	for _, rec := range records {
		blogURL := p.postSingle(ctx, page, rec, log)
		if blogURL == "" {
			log.Warn("no confirmed URL for record", "id", rec.ID, "title", rec.Title)
			continue
		}
		if rec.ID != "" {
			results[rec.ID] = blogURL
		}
	}

	log.Info("publish batch done", "confirmed", len(results))
	return results, nil
}

// login opens a stealth page and signs in with the configured credentials.
func (p *Publisher) login(ctx context.Context) (*rod.Page, error) {
	page, err := p.session.StealthPage()
	if err != nil {
		return nil, err
	}
	page = page.Context(ctx)

	nav := p.cfg.Browser.NavTimeout
	if err := page.Timeout(nav).Navigate(loginURL); err != nil {
		page.Close()
		return nil, err
	}
	if err := p.fill(page, "#id", p.cfg.Naver.ID); err != nil {
		page.Close()
		return nil, fmt.Errorf("fill id: %w", err)
	}
	if err := p.fill(page, "#pw", p.cfg.Naver.Password); err != nil {
		page.Close()
		return nil, fmt.Errorf("fill password: %w", err)
	}
	if err := p.click(page, "#log\\.login"); err != nil {
		page.Close()
		return nil, fmt.Errorf("submit login: %w", err)
	}
	if err := page.Timeout(nav).WaitStable(500 * time.Millisecond); err != nil {
		p.logger.Warn("login stability timeout, continuing", "error", err)
	}
	return page, nil
}

// postSingle walks one record through the editor. Every step short of URL
// resolution is best-effort: an exhausted strategy chain skips the step
// and the flow continues.
func (p *Publisher) postSingle(ctx context.Context, page *rod.Page, rec types.NewsRecord, log *slog.Logger) string {
	title := rec.Title
	if title == "" {
		title = "제목 없음"
	}

	nav := p.cfg.Browser.NavTimeout
	if err := page.Timeout(nav).Navigate(writeFormURL); err != nil {
		log.Warn("write form navigation failed", "error", err)
		return ""
	}
	if err := page.Timeout(nav).WaitStable(500 * time.Millisecond); err != nil {
		log.Warn("write form stability timeout, continuing", "error", err)
	}
	// Editor scripts keep mutating the DOM after load settles.
	time.Sleep(time.Second)

	scopes := p.editorScopes(page)
	p.dismissPopup(scopes, log)
	p.closeHelpPanel(scopes, log)
	p.fillTitle(scopes, page, title, log)
	p.fillContent(scopes, page, rec.Content, log)
	p.publish(scopes, page, log)

	return p.resolver.Resolve(ctx)
}

// editorScopes returns the editor iframe (when reachable) followed by the
// top document. Selector chains walk them in that order.
func (p *Publisher) editorScopes(page *rod.Page) []*rod.Page {
	var scopes []*rod.Page
	if frameEl, err := page.Timeout(p.cfg.Browser.StepTimeout).Element(editorFrameSel); err == nil {
		if frame, err := frameEl.Frame(); err == nil {
			scopes = append(scopes, frame)
		}
	}
	return append(scopes, page)
}

// dismissPopup cancels the draft-restore confirm dialog when it shows up.
// Absence of the popup is the normal case.
func (p *Publisher) dismissPopup(scopes []*rod.Page, log *slog.Logger) {
	for _, scope := range scopes {
		has, popup, err := scope.Has(popupSel)
		if err != nil || !has {
			continue
		}
		if visible, _ := popup.Visible(); !visible {
			continue
		}
		runChain(log, "dismiss_popup", []Strategy{{
			Name: "cancel_button",
			Run: func() error {
				cancel, err := popup.ElementR(popupButtonSel, `/^\s*취소\s*$/`)
				if err != nil {
					return err
				}
				btn, err := cancel.ElementX("ancestor::button[1]")
				if err != nil {
					return err
				}
				return btn.Click(proto.InputMouseButtonLeft, 1)
			},
		}})
		return
	}
}

// closeHelpPanel closes the onboarding help panel, or advances it when no
// close button is exposed.
func (p *Publisher) closeHelpPanel(scopes []*rod.Page, log *slog.Logger) {
	for _, scope := range scopes {
		has, panel, err := scope.Has(helpPanelSel)
		if err != nil || !has {
			continue
		}
		if visible, _ := panel.Visible(); !visible {
			continue
		}
		runChain(log, "close_help_panel", []Strategy{
			{
				Name: "close_button",
				Run: func() error {
					btn, err := panel.Element(helpCloseSel)
					if err != nil {
						return err
					}
					return btn.Click(proto.InputMouseButtonLeft, 1)
				},
			},
			{
				Name: "next_button",
				Run: func() error {
					btn, err := panel.Element(helpNextSel)
					if err != nil {
						return err
					}
					return btn.Click(proto.InputMouseButtonLeft, 1)
				},
			},
		})
		return
	}
}

func (p *Publisher) fillTitle(scopes []*rod.Page, page *rod.Page, title string, log *slog.Logger) {
	var strategies []Strategy
	for _, scope := range scopes {
		scope := scope
		prefix := p.scopeLabel(scope, page)
		strategies = append(strategies,
			Strategy{
				Name: prefix + "_title_editable",
				Run:  func() error { return p.fillEditable(scope, titleEditableSel, title) },
			},
			Strategy{
				Name: prefix + "_title_placeholder",
				Run:  func() error { return p.clickPlaceholderAndType(scope, page, "제목", title) },
			},
		)
	}
	strategies = append(strategies, Strategy{
		Name: "legacy_title_input",
		Run: func() error {
			el, err := page.Timeout(probeTimeout).Element(legacyTitleSel)
			if err != nil {
				return err
			}
			return el.Input(title)
		},
	})
	runChain(log, "fill_title", strategies)
}

func (p *Publisher) fillContent(scopes []*rod.Page, page *rod.Page, content string, log *slog.Logger) {
	var strategies []Strategy
	for _, scope := range scopes {
		scope := scope
		prefix := p.scopeLabel(scope, page)
		strategies = append(strategies,
			Strategy{
				Name: prefix + "_content_editable",
				Run:  func() error { return p.fillEditable(scope, contentEditableSel, content) },
			},
			Strategy{
				Name: prefix + "_content_placeholder",
				Run:  func() error { return p.clickPlaceholderAndType(scope, page, contentPlaceholder, content) },
			},
		)
	}
	strategies = append(strategies,
		Strategy{
			Name: "first_editable_anywhere",
			Run:  func() error { return p.fillEditable(page, anyEditableSel, content) },
		},
		Strategy{
			Name: "raw_keyboard_insert",
			Run:  func() error { return page.InsertText(content) },
		},
	)
	runChain(log, "fill_content", strategies)
}

// publish opens the publish layer, then clicks the final confirm control.
func (p *Publisher) publish(scopes []*rod.Page, page *rod.Page, log *slog.Logger) {
	var open []Strategy
	for _, scope := range scopes {
		scope := scope
		open = append(open, Strategy{
			Name: p.scopeLabel(scope, page) + "_publish_button",
			Run: func() error {
				btn, err := scope.Timeout(probeTimeout).Element(publishOpenSel)
				if err != nil {
					return err
				}
				if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
					return err
				}
				// Give the confirm layer a chance to mount; its absence is
				// not fatal since some layouts publish in one click.
				if _, err := scope.Timeout(p.cfg.Browser.StepTimeout).Element(publishConfirmSel); err != nil {
					log.Debug("confirm layer did not appear", "error", err)
				}
				return nil
			},
		})
	}
	runChain(log, "open_publish_layer", open)

	var confirm []Strategy
	for _, scope := range scopes {
		scope := scope
		prefix := p.scopeLabel(scope, page)
		confirm = append(confirm,
			Strategy{
				Name: prefix + "_confirm_testid",
				Run:  func() error { return p.clickSel(scope, `[data-testid="seOnePublishBtn"]`) },
			},
			Strategy{
				Name: prefix + "_confirm_class",
				Run:  func() error { return p.clickSel(scope, "button.confirm_btn__WEaBq") },
			},
			Strategy{
				Name: prefix + "_confirm_click_area",
				Run:  func() error { return p.clickSel(scope, `[data-click-area="tpb*i.publish"]`) },
			},
			Strategy{
				Name: prefix + "_confirm_button_text",
				Run: func() error {
					btn, err := scope.Timeout(probeTimeout).ElementR("button", "발행")
					if err != nil {
						return err
					}
					return btn.Click(proto.InputMouseButtonLeft, 1)
				},
			},
			Strategy{
				Name: prefix + "_confirm_span_text",
				Run: func() error {
					span, err := scope.Timeout(probeTimeout).ElementR("span", "발행")
					if err != nil {
						return err
					}
					btn, err := span.ElementX("ancestor::button[1]")
					if err != nil {
						return err
					}
					return btn.Click(proto.InputMouseButtonLeft, 1)
				},
			},
		)
	}
	confirm = append(confirm, Strategy{
		Name: "register_text",
		Run: func() error {
			btn, err := page.Timeout(probeTimeout).ElementR("button", "등록")
			if err != nil {
				return err
			}
			return btn.Click(proto.InputMouseButtonLeft, 1)
		},
	})
	runChain(log, "confirm_publish", confirm)
}

// --- element helpers ---

func (p *Publisher) fill(scope *rod.Page, sel, text string) error {
	el, err := scope.Timeout(p.cfg.Browser.StepTimeout).Element(sel)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		p.logger.Debug("select all failed", "selector", sel, "error", err)
	}
	return el.Input(text)
}

func (p *Publisher) fillEditable(scope *rod.Page, sel, text string) error {
	el, err := scope.Timeout(probeTimeout).Element(sel)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		p.logger.Debug("select all failed", "selector", sel, "error", err)
	}
	return el.Input(text)
}

func (p *Publisher) clickPlaceholderAndType(scope, page *rod.Page, placeholder, text string) error {
	el, err := scope.Timeout(probeTimeout).ElementR(placeholderSel, placeholder)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	return page.InsertText(text)
}

func (p *Publisher) clickSel(scope *rod.Page, sel string) error {
	el, err := scope.Timeout(probeTimeout).Element(sel)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *Publisher) click(scope *rod.Page, sel string) error {
	el, err := scope.Timeout(p.cfg.Browser.StepTimeout).Element(sel)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *Publisher) scopeLabel(scope, page *rod.Page) string {
	if scope == page {
		return "top"
	}
	return "frame"
}
