package browser

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Session is one exclusively-owned browser context pointed at the chat UI.
// It implements the recovery engine's session contract. All text-returning
// methods are scoped to the latest response group so earlier conversational
// turns never leak into a capture.
type Session struct {
	pool   *Pool
	ctx    context.Context
	prompt string
}

// chatURL is where profile queries are asked.
const chatURL = "https://gemini.google.com/app"

// responseGroupJS resolves the latest response container, or document.body
// when the UI structure is not recognized.
const responseGroupJS = `(() => {
	const groups = document.querySelectorAll("model-response, response-container, message-content.model-response-text, div[data-message-author='ai']");
	return groups.length ? groups[groups.length - 1] : document.body;
})`

// inputLocators are tried in order to find the prompt input field.
var inputLocators = []string{
	"textarea[aria-label*='Message' i]",
	"textarea",
	"div[contenteditable='true']",
	"div[role='textbox']",
	"input[aria-label*='Ask' i]",
}

// Navigate opens url and waits for the document to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.bounded(ctx, 60*time.Second)
	defer cancel()
	return chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second),
	)
}

// Open navigates to the chat UI.
func (s *Session) Open(ctx context.Context) error {
	return s.Navigate(ctx, chatURL)
}

// SubmitPrompt types the query into the input field and submits it. The
// value is set in one shot through the DOM so embedded newlines never act as
// premature submits.
func (s *Session) SubmitPrompt(ctx context.Context, prompt string) error {
	s.prompt = prompt

	runCtx, cancel := s.bounded(ctx, 30*time.Second)
	defer cancel()

	js := fmt.Sprintf(`(() => {
		const locators = %s;
		for (const loc of locators) {
			const el = document.querySelector(loc);
			if (!el || el.offsetParent === null) continue;
			el.focus();
			if (el.tagName === "TEXTAREA" || el.tagName === "INPUT") {
				el.value = %s;
			} else {
				el.innerHTML = "";
				el.textContent = %s;
			}
			el.dispatchEvent(new Event("input", { bubbles: true }));
			el.dispatchEvent(new Event("change", { bubbles: true }));
			return true;
		}
		return false;
	})()`, jsStringArray(inputLocators), jsString(prompt), jsString(prompt))

	var filled bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, &filled)); err != nil {
		return fmt.Errorf("failed to fill prompt input: %w", err)
	}
	if !filled {
		return errors.New("prompt input field not found")
	}

	return chromedp.Run(runCtx,
		chromedp.Sleep(500*time.Millisecond),
		chromedp.KeyEvent("\r"),
	)
}

// Prompt returns the last submitted query.
func (s *Session) Prompt() string { return s.prompt }

// LatestResponseText returns the rendered text of the newest response.
func (s *Session) LatestResponseText(ctx context.Context) (string, error) {
	runCtx, cancel := s.bounded(ctx, 10*time.Second)
	defer cancel()

	js := `(() => {
		const group = ` + responseGroupJS + `();
		if (!group || group === document.body) return "";
		return (group.innerText || "").trim();
	})()`

	var text string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, &text)); err != nil {
		return "", fmt.Errorf("failed to read latest response: %w", err)
	}
	return text, nil
}

// TriggerCopy clicks the copy control attached to the latest response,
// skipping any copy button that belongs to the user query block.
func (s *Session) TriggerCopy(ctx context.Context) error {
	runCtx, cancel := s.bounded(ctx, 10*time.Second)
	defer cancel()

	js := `(() => {
		const group = ` + responseGroupJS + `();
		const locators = [
			"copy-button button[data-test-id='copy-button']",
			"copy-button button[aria-label='Copy']",
			"copy-button button",
			"button[aria-label*='Copy' i]",
			"button[data-testid*='copy' i]",
		];
		const inUserQuery = (el) => {
			for (let p = el.parentElement; p; p = p.parentElement) {
				if (p.tagName && p.tagName.toLowerCase() === "user-query") return true;
			}
			return false;
		};
		for (const loc of locators) {
			for (const btn of group.querySelectorAll(loc)) {
				if (inUserQuery(btn)) continue;
				btn.scrollIntoView({ block: "center" });
				btn.click();
				return true;
			}
		}
		return false;
	})()`

	var clicked bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, &clicked)); err != nil {
		return fmt.Errorf("copy click failed: %w", err)
	}
	if !clicked {
		return errors.New("copy button not found in latest response")
	}
	// Let the page commit the write before anyone reads it back.
	return chromedp.Run(runCtx, chromedp.Sleep(800*time.Millisecond))
}

// ReadClipboard reads through the in-session clipboard API. Requires the
// clipboard-read permission, granted per-origin on first use.
func (s *Session) ReadClipboard(ctx context.Context) (string, error) {
	runCtx, cancel := s.bounded(ctx, 10*time.Second)
	defer cancel()

	err := chromedp.Run(runCtx,
		cdpbrowser.GrantPermissions([]cdpbrowser.PermissionType{
			cdpbrowser.PermissionTypeClipboardReadWrite,
			cdpbrowser.PermissionTypeClipboardSanitizedWrite,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("clipboard permission grant failed: %w", err)
	}

	var text string
	js := `navigator.clipboard.readText().catch(() => "")`
	awaitPromise := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, &text, awaitPromise)); err != nil {
		return "", fmt.Errorf("clipboard read failed: %w", err)
	}
	return text, nil
}

// ReadHostClipboard shells out to the host clipboard tool. Which tool exists
// depends on the platform; first hit wins.
func (s *Session) ReadHostClipboard() (string, error) {
	tools := [][]string{
		{"xclip", "-selection", "clipboard", "-o"},
		{"xsel", "--clipboard", "--output"},
		{"pbpaste"},
		{"wl-paste"},
	}
	for _, tool := range tools {
		path, err := exec.LookPath(tool[0])
		if err != nil {
			continue
		}
		out, err := exec.Command(path, tool[1:]...).Output()
		if err != nil {
			continue
		}
		return string(out), nil
	}
	return "", errors.New("no host clipboard tool available")
}

// QuerySelectorAll returns the visible inner text of every match for the
// locator within the latest response group. Input fields, editable regions
// and page chrome are excluded since they carry the query, not the response.
func (s *Session) QuerySelectorAll(ctx context.Context, locator string) ([]string, error) {
	runCtx, cancel := s.bounded(ctx, 10*time.Second)
	defer cancel()

	js := `((loc) => {
		const group = ` + responseGroupJS + `();
		const visible = (el) => {
			const st = getComputedStyle(el);
			if (st.visibility === "hidden" || st.display === "none") return false;
			const r = el.getBoundingClientRect();
			return r.width > 0 || r.height > 0;
		};
		const out = [];
		let nodes;
		try { nodes = group.querySelectorAll(loc); } catch (e) { return out; }
		for (const el of nodes) {
			if (!visible(el)) continue;
			if (el.tagName === "INPUT" || el.tagName === "TEXTAREA") continue;
			if (el.isContentEditable) continue;
			const role = (el.getAttribute("role") || "").toLowerCase();
			if (["navigation", "banner", "complementary", "contentinfo", "textbox"].includes(role)) continue;
			const t = (el.innerText || "").trim();
			if (t) out.push(t);
		}
		return out;
	})(` + jsString(locator) + `)`

	var texts []string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, &texts)); err != nil {
		return nil, fmt.Errorf("selector query failed: %w", err)
	}
	return texts, nil
}

// DeepShadowText walks the latest response group including shadow roots and
// returns all visible text, which shallow selector queries miss on
// web-component-heavy UIs.
func (s *Session) DeepShadowText(ctx context.Context) (string, error) {
	runCtx, cancel := s.bounded(ctx, 10*time.Second)
	defer cancel()

	js := `(() => {
		const group = ` + responseGroupJS + `();
		const visible = (e) => {
			if (!(e instanceof Element)) return false;
			const st = getComputedStyle(e);
			if (st.visibility === "hidden" || st.display === "none" || parseFloat(st.opacity || "1") < 0.05) return false;
			const r = e.getBoundingClientRect();
			return !((r.width === 0 && r.height === 0) || r.bottom < 0 || r.right < 0);
		};
		const deepText = (e) => {
			if (!e) return "";
			let t = "";
			if (e.shadowRoot) t += deepText(e.shadowRoot);
			for (const n of e.childNodes) {
				if (n.nodeType === Node.TEXT_NODE) t += n.textContent;
				else if (n.nodeType === Node.ELEMENT_NODE && visible(n)) t += deepText(n);
			}
			return t;
		};
		return deepText(group);
	})()`

	var text string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, &text)); err != nil {
		return "", fmt.Errorf("shadow traversal failed: %w", err)
	}
	return text, nil
}

// bounded derives a run context from the session's browser context that also
// honors the caller's deadline and cancellation.
func (s *Session) bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel1 := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel1)
	return runCtx, func() { stop(); cancel1() }
}

// jsString renders s as a JS string literal.
func jsString(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "`", "\\`", "$", "\\$")
	return "`" + r.Replace(s) + "`"
}

// jsStringArray renders a JS array literal of strings.
func jsStringArray(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = jsString(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
