package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// DefaultUserAgent is a current desktop Chrome UA without the "Headless" token.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"

// stealthScript runs before any page script on every navigation. It removes
// the signals bot-detection widgets commonly probe.
const stealthScript = `(() => {
  const define = (obj, prop, value) => {
    try {
      Object.defineProperty(obj, prop, { get: () => value, configurable: true });
    } catch (_) {}
  };

  define(Navigator.prototype, 'webdriver', undefined);
  define(Navigator.prototype, 'languages', ['en-US', 'en']);
  define(Navigator.prototype, 'hardwareConcurrency', 8);
  define(Navigator.prototype, 'deviceMemory', 8);

  const plugins = [
    { name: 'PDF Viewer', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
    { name: 'Chrome PDF Viewer', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
    { name: 'Chromium PDF Viewer', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
  ];
  define(Navigator.prototype, 'plugins', Object.assign(plugins, {
    item: (i) => plugins[i] || null,
    namedItem: (n) => plugins.find((p) => p.name === n) || null,
    refresh: () => {},
  }));

  if (!window.chrome) {
    window.chrome = {};
  }
  if (!window.chrome.runtime) {
    window.chrome.runtime = { connect: () => {}, sendMessage: () => {} };
  }

  if (navigator.permissions && navigator.permissions.query) {
    const originalQuery = navigator.permissions.query.bind(navigator.permissions);
    navigator.permissions.query = (params) =>
      params && params.name === 'notifications'
        ? Promise.resolve({ state: Notification.permission, onchange: null })
        : originalQuery(params);
  }

  const patchWebGL = (proto) => {
    if (!proto) return;
    const getParameter = proto.getParameter;
    proto.getParameter = function (param) {
      if (param === 37445) return 'Intel Inc.';
      if (param === 37446) return 'Intel Iris OpenGL Engine';
      return getParameter.call(this, param);
    };
  };
  patchWebGL(window.WebGLRenderingContext && WebGLRenderingContext.prototype);
  patchWebGL(window.WebGL2RenderingContext && WebGL2RenderingContext.prototype);
})();`

// StealthScript returns the init script applied to every page.
func StealthScript() string {
	return stealthScript
}

// ApplyStealth installs the stealth init script on page. It must run before
// the first navigation to take effect on that document.
func ApplyStealth(page playwright.Page) error {
	if err := page.AddInitScript(playwright.Script{
		Content: playwright.String(stealthScript),
	}); err != nil {
		return fmt.Errorf("apply stealth init script: %w", err)
	}
	return nil
}
