package htmlnorm

import "strings"

// Tag tables: HTML4 + HTML5 element classification used by the normalizer,
// the whitespace pass, and the validator.

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "command": true,
	"embed": true, "hr": true, "img": true, "input": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// rawContentTags keep their text content out of tag scanning; only the
// matching close tag ends them.
var rawContentTags = map[string]bool{
	"script": true, "style": true,
}

// preformattedTags keep their whitespace byte-for-byte.
var preformattedTags = map[string]bool{
	"pre": true, "textarea": true, "script": true, "style": true,
}

var blockLevelTags = buildSet(
	// HTML4
	"html", "head", "body", "meta", "script", "noscript", "p", "div",
	"ul", "ol", "dl", "dt", "dd", "li", "table", "td", "tr", "th",
	"thead", "tfoot", "tbody", "br", "link", "title",
	"h1", "h2", "h3", "h4", "h5", "h6", "form", "object", "base",
	"iframe", "fieldset", "code", "blockquote", "legend", "pre", "embed",
	// HTML5
	"article", "aside", "canvas", "figcaption", "figure", "footer",
	"header", "hgroup", "output", "progress", "section", "video",
)

var inlineLevelTags = buildSet(
	// HTML4
	"address", "span", "a", "b", "i", "em", "del", "ins", "strong",
	"select", "label", "q", "sub", "sup", "small", "option", "abbr",
	"img", "input", "hr", "param", "button", "caption", "style",
	"textarea", "colgroup", "col", "samp", "kbd", "map", "optgroup",
	"strike", "var", "wbr", "dfn", "u", "tt", "font", "cite",
	// HTML5
	"audio", "details", "command", "datalist", "mark", "meter", "nav",
	"source", "summary", "time",
)

// inlineBlockTags render inline but may contain block-level content;
// exempt from the block-in-inline nesting check.
var inlineBlockTags = buildSet(
	"h1", "h2", "h3", "h4", "h5", "h6", "img", "object", "button",
)

var deprecatedTags = buildSet("i", "b", "u", "tt", "strike", "font")

// globalAttributes are valid on every tag.
var globalAttributes = buildSet(
	"accesskey", "id", "class", "contenteditable", "contextmenu", "dir",
	"draggable", "dropzone", "hidden", "spellcheck", "style", "tabindex",
	"lang", "xmlns", "title", "xml:lang", "role",
)

// tagAttributes lists the per-tag valid attribute names checked by the
// validator; data-*, event handlers, and namespaced attributes are exempt.
var tagAttributes = map[string]map[string]bool{
	"a":      buildSet("href", "hreflang", "media", "type", "target", "rel", "name"),
	"audio":  buildSet("autoplay", "controls", "loop", "preload", "src"),
	"canvas": buildSet("height", "width"),
	"font":   buildSet("face", "size"),
	"form":   buildSet("action", "method", "enctype", "name", "novalidate"),
	"html":   buildSet("xmlns", "lang", "dir"),
	"body":   buildSet("onload"),
	"img":    buildSet("src", "alt", "height", "width"),
	"input": buildSet("type", "name", "value", "maxlength", "checked",
		"disabled", "src", "size", "readonly", "placeholder", "required"),
	"select":   buildSet("name", "value", "size", "multiple"),
	"textarea": buildSet("name", "rows", "cols", "readonly", "placeholder"),
	"link":     buildSet("type", "rel", "href", "media", "charset"),
	"meta":     buildSet("content", "http-equiv", "name", "charset"),
	"script":   buildSet("type", "src", "language", "charset", "defer", "async"),
	"style":    buildSet("type", "media"),
	"td":       buildSet("colspan", "rowspan"),
	"th":       buildSet("colspan", "rowspan", "scope"),
	"button":   buildSet("value", "type", "name", "disabled"),
	"label":    buildSet("for"),
	"option":   buildSet("value", "selected", "disabled"),
	"base":     buildSet("href"),
	"object":   buildSet("data", "type", "width", "height", "quality"),
	"iframe": buildSet("src", "srcdoc", "name", "height", "width",
		"marginwidth", "marginheight", "scrolling", "sandbox", "seamless",
		"frameborder", "allowtransparency"),
	"param": buildSet("name", "value"),
	"table": buildSet("cellpadding", "cellspacing", "summary", "width"),
	"p":     buildSet("align"),
	"embed": buildSet("src", "allowscriptaccess", "height", "width",
		"allowfullscreen", "type"),
	"video": buildSet("audio", "autoplay", "controls", "height", "loop",
		"poster", "preload", "src", "width"),
}

var knownTags = func() map[string]bool {
	all := make(map[string]bool, len(blockLevelTags)+len(inlineLevelTags))
	for t := range blockLevelTags {
		all[t] = true
	}
	for t := range inlineLevelTags {
		all[t] = true
	}
	return all
}()

func buildSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// IsVoid reports whether tag never takes a close tag.
func IsVoid(tag string) bool { return voidTags[strings.ToLower(tag)] }

// IsBlockLevel reports whether tag renders as a block-level box.
func IsBlockLevel(tag string) bool { return blockLevelTags[strings.ToLower(tag)] }

// IsInlineLevel reports whether tag renders inline.
func IsInlineLevel(tag string) bool { return inlineLevelTags[strings.ToLower(tag)] }

// IsInlineBlock reports whether tag is exempt from block-in-inline checks.
func IsInlineBlock(tag string) bool { return inlineBlockTags[strings.ToLower(tag)] }

// IsPreformatted reports whether whitespace inside tag is significant.
func IsPreformatted(tag string) bool { return preformattedTags[strings.ToLower(tag)] }

// IsKnownTag reports whether tag is in the HTML4/HTML5 vocabulary.
// Namespaced tags (fb:like) are never "unknown".
func IsKnownTag(tag string) bool {
	lower := strings.ToLower(tag)
	return knownTags[lower] || voidTags[lower] || strings.Contains(tag, ":")
}

// IsDeprecatedTag reports presentational tags flagged by validation.
func IsDeprecatedTag(tag string) bool { return deprecatedTags[strings.ToLower(tag)] }

// ValidAttribute reports whether name is an accepted attribute for tag.
// data-* attributes, inline event handlers, and namespaced names always
// pass.
func ValidAttribute(tag, name string) bool {
	lower := strings.ToLower(name)
	if globalAttributes[lower] {
		return true
	}
	if strings.HasPrefix(lower, "data-") || strings.HasPrefix(lower, "on") ||
		strings.Contains(name, ":") {
		return true
	}
	if attrs, ok := tagAttributes[strings.ToLower(tag)]; ok {
		return attrs[lower]
	}
	return false
}
