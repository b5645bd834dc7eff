package codegen

import "strings"

const stylesheet = `* {
  margin: 0;
  padding: 0;
  box-sizing: border-box;
}

body {
  font-family: 'Rubik', -apple-system, sans-serif;
  background: {{background}};
  min-height: 100vh;
  overflow: hidden;
}

.canvas {
  position: relative;
  width: 100vw;
  height: 100vh;
}

.element {
  position: absolute;
  padding: 10px 20px;
  background: rgba(255, 255, 255, 0.1);
  border: 1px solid rgba(155, 135, 245, 0.3);
  border-radius: 8px;
  color: #fff;
  cursor: move;
  user-select: none;
  transition: all 0.2s ease;
}

.element:hover {
  background: rgba(255, 255, 255, 0.15);
  box-shadow: 0 0 20px rgba(155, 135, 245, 0.4);
}

a.element {
  text-decoration: none;
  color: #9b87f5;
}

img.element {
  max-width: 200px;
  height: auto;
  background: transparent;
}`

// CSS renders the shared stylesheet. Only the page background varies.
func CSS(background string) string {
	return strings.Replace(stylesheet, "{{background}}", sanitizeDeclaration(background), 1)
}

// sanitizeDeclaration keeps a value from closing its declaration or rule.
func sanitizeDeclaration(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '\n', '\r':
			return -1
		}
		return r
	}, strings.TrimSpace(v))
}
