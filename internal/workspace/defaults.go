package workspace

// Starter content for a new project.
const (
	DefaultHTML = "<h1>Hello, world!</h1>\n<p>Start building your site here</p>"

	DefaultCSS = "body {\n  font-family: Arial, sans-serif;\n  padding: 20px;\n  background: #f0f0f0;\n}\n\nh1 {\n  color: #9b87f5;\n}"

	DefaultJS = `console.log("Site loaded!");`

	DefaultBackground = "#1a1a2e"
)

// Defaults returns the starter buffers.
func Defaults() Snapshot {
	return Snapshot{
		HTML:       DefaultHTML,
		CSS:        DefaultCSS,
		JS:         DefaultJS,
		Background: DefaultBackground,
	}
}
