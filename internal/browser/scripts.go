// internal/browser/scripts.go
package browser

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Page scripts. Every script is an IIFE whose arguments are JSON literals, so
// selectors and CSS values never need escaping by hand.

// queryAllScript lists every match of a selector in document order.
const queryAllScript = `(function(selector) {
	return Array.from(document.querySelectorAll(selector), function(el, index) {
		const rect = el.getBoundingClientRect();
		return {
			index: index,
			tag: el.tagName.toLowerCase(),
			text: (el.textContent || '').trim().slice(0, 200),
			width: rect.width,
			height: rect.height
		};
	});
})(%s)`

// rootPropertyScript reads a computed custom property from the root element.
const rootPropertyScript = `(function(name) {
	return getComputedStyle(document.documentElement).getPropertyValue(name).trim();
})(%s)`

// lengthProbeScript lays a CSS length out as the height of an invisible block
// and reads back the used height in pixels.
const lengthProbeScript = `(function(value) {
	const probe = document.createElement('div');
	probe.style.cssText = 'position:absolute;visibility:hidden;width:0;padding:0;border:0;margin:0;';
	probe.style.setProperty('height', value);
	document.body.appendChild(probe);
	try {
		return probe.getBoundingClientRect().height;
	} finally {
		probe.remove();
	}
})(%s)`

// baselineProbeScript inserts a zero-size inline-block as the first child of
// the element. Its top edge sits on the first line's baseline.
const baselineProbeScript = `(function(selector, index) {
	const el = document.querySelectorAll(selector)[index];
	if (!el) {
		return null;
	}
	const probe = document.createElement('span');
	probe.style.cssText = 'display:inline-block;width:0;height:0;padding:0;border:0;margin:0;vertical-align:baseline;';
	el.insertBefore(probe, el.firstChild);
	try {
		return probe.getBoundingClientRect().top + window.scrollY;
	} finally {
		probe.remove();
	}
})(%s, %s)`

// addOverlayScript draws horizontal lines every size pixels starting at start,
// across the full scroll height of the document.
const addOverlayScript = `(function(id, size, start, color) {
	const old = document.getElementById(id);
	if (old) {
		old.remove();
	}
	const height = Math.max(document.documentElement.scrollHeight, document.body ? document.body.scrollHeight : 0);
	const overlay = document.createElement('div');
	overlay.id = id;
	overlay.style.cssText = 'position:absolute;left:0;top:0;width:100%;pointer-events:none;z-index:2147483647;';
	overlay.style.height = height + 'px';
	overlay.style.backgroundImage = 'linear-gradient(to bottom, ' + color + ' 0, ' + color + ' 1px, transparent 1px)';
	overlay.style.backgroundSize = '100% ' + size + 'px';
	overlay.style.backgroundPosition = '0 ' + start + 'px';
	overlay.style.backgroundRepeat = 'repeat-y';
	document.body.appendChild(overlay);
	return true;
})(%s, %s, %s, %s)`

// removeOverlayScript removes the overlay if it is present.
const removeOverlayScript = `(function(id) {
	const el = document.getElementById(id);
	if (el) {
		el.remove();
	}
	return true;
})(%s)`

var scriptJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// buildScript fills a script template with JSON-encoded arguments.
func buildScript(template string, args ...interface{}) (string, error) {
	encoded := make([]interface{}, len(args))
	for i, arg := range args {
		b, err := scriptJSON.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("failed to encode script argument %d: %w", i, err)
		}
		encoded[i] = string(b)
	}
	return fmt.Sprintf(template, encoded...), nil
}

// elementInfo is the shape returned by queryAllScript.
type elementInfo struct {
	Index  int     `json:"index"`
	Tag    string  `json:"tag"`
	Text   string  `json:"text"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
