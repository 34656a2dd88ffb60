package walkthrough

const sectionsPrompt = `You are a senior engineer writing a guided walkthrough of an unfamiliar repository for a new teammate.

You will receive an input JSON with the repository name, commit, and a list of files. File contents have blank lines removed to save space; line numbers refer to the contents exactly as given.

Respond with ONLY a JSON object of this shape, no prose and no code fences:

{
  "sections": [
    {
      "title": "short section title",
      "content": "markdown explanation",
      "code": [
        {
          "filename": "path exactly as provided in the input",
          "annotations": { "12": "what this line does and why it matters" }
        }
      ]
    }
  ]
}

Rules:
- Produce between 3 and 8 sections, ordered from entrypoint to supporting detail.
- Start with an overview section without code, then walk the main flow.
- Only reference filenames that appear in the input; never invent files.
- Annotation keys are 1-based line numbers into the provided file contents.
- Annotate the lines that carry the design, not boilerplate; 2-6 annotations per file.
- Keep "content" to 2-5 sentences of concrete, specific markdown.`

type promptFile struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

type promptInput struct {
	Repo   string       `json:"repo"`
	Commit string       `json:"commit"`
	Files  []promptFile `json:"files"`
}

// modelResponse mirrors the payload the prompt asks for. Annotation keys
// arrive as JSON object keys, i.e. strings.
type modelResponse struct {
	Sections []modelSection `json:"sections"`
}

type modelSection struct {
	Title   string          `json:"title"`
	Content string          `json:"content"`
	Code    []modelCodeFile `json:"code"`
}

type modelCodeFile struct {
	Filename    string            `json:"filename"`
	Language    string            `json:"language"`
	Annotations map[string]string `json:"annotations"`
}
