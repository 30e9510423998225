// Package snapshot captures one raw accessibility tree per observation
// by walking the live DOM inside the page. The walk descends into open
// shadow roots and same-origin iframes, recording the boundary path so
// hosted elements stay resolvable later.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/polzovatel/a11y-action-space/internal/axtree"
	"github.com/polzovatel/a11y-action-space/internal/browser"
)

// Summary is one page observation: identity plus the raw tree.
type Summary struct {
	URL   string
	Title string
	Tree  *axtree.Node
}

// Collect walks the current page and returns its raw tree. The tree
// comes back with ancestor paths stamped; everything downstream treats
// it as immutable input.
func Collect(ctx context.Context, ctrl browser.Controller) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	page := ctrl.Page()
	title, _ := page.Title()
	url := page.URL()

	val, err := page.Evaluate(walkScript)
	if err != nil {
		return Summary{}, fmt.Errorf("walk page: %w", err)
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return Summary{}, fmt.Errorf("encode walk result: %w", err)
	}
	tree, err := Parse(raw)
	if err != nil {
		return Summary{}, err
	}
	return Summary{URL: url, Title: title, Tree: tree}, nil
}

// Parse decodes a walker payload into a tree. Split out of Collect so
// saved captures can be replayed without a browser.
func Parse(raw []byte) (*axtree.Node, error) {
	var root capturedNode
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	tree := root.toNode()
	if tree == nil {
		return nil, fmt.Errorf("decode capture: empty tree")
	}
	tree.StampPaths()
	return tree, nil
}

// WithDeadline shortens context to avoid long snapshot waits.
func WithDeadline(ctx context.Context, dur time.Duration) (context.Context, context.CancelFunc) {
	if dur <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, dur)
}

// capturedNode mirrors the walker's JSON shape.
type capturedNode struct {
	Role      string          `json:"role"`
	Name      string          `json:"name"`
	Modal     bool            `json:"modal"`
	Required  bool            `json:"required"`
	Selected  bool            `json:"selected"`
	Checked   bool            `json:"checked"`
	Disabled  bool            `json:"disabled"`
	Editable  bool            `json:"editable"`
	Tag       string          `json:"tag"`
	Href      string          `json:"href"`
	Src       string          `json:"src"`
	InputType string          `json:"inputType"`
	InShadow  bool            `json:"inShadow"`
	InFrame   bool            `json:"inFrame"`
	FramePath []capturedHop   `json:"framePath"`
	Children  []*capturedNode `json:"children"`
}

type capturedHop struct {
	Shadow   bool   `json:"shadow"`
	Selector string `json:"selector"`
}

func (c *capturedNode) toNode() *axtree.Node {
	if c == nil {
		return nil
	}
	n := &axtree.Node{
		Role:     axtree.NormalizeRole(c.Role),
		Name:     c.Name,
		Modal:    c.Modal,
		Required: c.Required,
		Selected: c.Selected,
		Checked:  c.Checked,
		Disabled: c.Disabled,
		Editable: c.Editable,
	}
	if c.Tag != "" || c.InShadow || c.InFrame {
		d := &axtree.DomInfo{
			Tag:       c.Tag,
			Href:      c.Href,
			Src:       c.Src,
			InputType: c.InputType,
			InShadow:  c.InShadow,
			InFrame:   c.InFrame,
		}
		for _, hop := range c.FramePath {
			d.FramePath = append(d.FramePath, axtree.FrameHop{Shadow: hop.Shadow, Selector: hop.Selector})
		}
		n.DOM = d
	}
	for _, ch := range c.Children {
		if child := ch.toNode(); child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}

// walkScript runs inside the page. It emits a nested tree of semantic
// roles with the attributes later stages need, descending into open
// shadow roots and same-origin iframes; cross-origin frames come back
// as bare iframe leaves.
const walkScript = `() => {
	const tagRoles = {
		a: "link", button: "button", select: "combobox", textarea: "textbox",
		img: "image", nav: "navigation", main: "main", header: "banner",
		footer: "contentinfo", form: "form", dialog: "dialog", table: "table",
		tr: "row", td: "cell", th: "columnheader", ul: "list", ol: "list",
		li: "listitem", h1: "heading", h2: "heading", h3: "heading",
		h4: "heading", h5: "heading", h6: "heading", p: "paragraph",
		article: "article", section: "region", aside: "complementary",
		option: "option", iframe: "iframe", figure: "figure",
		blockquote: "blockquote", code: "code"
	};
	const inputRoles = {
		checkbox: "checkbox", radio: "radio", range: "slider",
		number: "spinbutton", button: "button", submit: "button",
		reset: "button", image: "button", search: "searchbox"
	};

	function roleOf(el) {
		const explicit = el.getAttribute("role");
		if (explicit) return explicit.toLowerCase();
		const tag = el.tagName.toLowerCase();
		if (tag === "input") {
			const t = (el.getAttribute("type") || "text").toLowerCase();
			if (t === "hidden") return "";
			return inputRoles[t] || "textbox";
		}
		if (tag === "script" || tag === "style" || tag === "template" ||
			tag === "noscript" || tag === "br") return "";
		return tagRoles[tag] || "generic";
	}

	function hidden(el) {
		if (el.getAttribute("aria-hidden") === "true") return true;
		const st = getComputedStyle(el);
		return st.display === "none" || st.visibility === "hidden";
	}

	function nameOf(el, leaf) {
		const label = el.getAttribute("aria-label") ||
			el.getAttribute("alt") || el.getAttribute("title") ||
			el.getAttribute("placeholder");
		if (label) return label.trim();
		if (leaf) {
			const text = (el.innerText || el.textContent || el.value || "");
			return text.trim().slice(0, 200);
		}
		return "";
	}

	function hostSelector(el) {
		if (el.id) return "#" + el.id;
		const tag = el.tagName.toLowerCase();
		const name = el.getAttribute("name");
		return name ? tag + "[name=\"" + name + "\"]" : tag;
	}

	function walk(el, hops, inShadow, inFrame) {
		if (hidden(el)) return null;
		const role = roleOf(el);
		if (role === "") return null;
		const tag = el.tagName.toLowerCase();
		const children = [];

		for (const child of el.childNodes) {
			if (child.nodeType === Node.TEXT_NODE) {
				const t = child.textContent.trim();
				if (t && el.childElementCount > 0) {
					children.push({ role: "text", name: t.slice(0, 200) });
				}
				continue;
			}
			if (child.nodeType !== Node.ELEMENT_NODE) continue;
			const sub = walk(child, hops, inShadow, inFrame);
			if (sub) children.push(sub);
		}

		if (el.shadowRoot) {
			const shadowHops = hops.concat([{ shadow: true, selector: hostSelector(el) }]);
			for (const child of el.shadowRoot.children) {
				const sub = walk(child, shadowHops, true, inFrame);
				if (sub) children.push(sub);
			}
		}

		if (tag === "iframe") {
			try {
				const doc = el.contentDocument;
				if (doc && doc.body) {
					const frameHops = hops.concat([{ shadow: false, selector: hostSelector(el) }]);
					for (const child of doc.body.children) {
						const sub = walk(child, frameHops, inShadow, true);
						if (sub) children.push(sub);
					}
				}
			} catch (e) {
				// cross-origin frame stays a leaf
			}
		}

		const node = {
			role: role,
			name: nameOf(el, children.length === 0),
			tag: tag,
			children: children
		};
		if (el.getAttribute("aria-modal") === "true") node.modal = true;
		if (el.required || el.getAttribute("aria-required") === "true") node.required = true;
		if (el.selected || el.getAttribute("aria-selected") === "true") node.selected = true;
		if (el.checked || el.getAttribute("aria-checked") === "true") node.checked = true;
		if (el.disabled || el.getAttribute("aria-disabled") === "true") node.disabled = true;
		if (el.isContentEditable ||
			((tag === "input" || tag === "textarea") && !el.readOnly && !el.disabled)) {
			node.editable = true;
		}
		if (el.href) node.href = el.getAttribute("href") || "";
		if (el.src) node.src = el.getAttribute("src") || "";
		if (tag === "input") node.inputType = (el.getAttribute("type") || "text").toLowerCase();
		if (inShadow) node.inShadow = true;
		if (inFrame) node.inFrame = true;
		if (hops.length > 0) node.framePath = hops;
		return node;
	}

	const children = [];
	for (const child of document.body.children) {
		const sub = walk(child, [], false, false);
		if (sub) children.push(sub);
	}
	return { role: "document", name: document.title, tag: "body", children: children };
}`
