package mcpserver

// DocumentFormatContract describes the canonical HTML document format that
// LLM consumers should follow when producing or editing document markup.
const DocumentFormatContract = `# Laguz Document Format Contract

Every document handled by Laguz is an HTML fragment built from the
registered vocabulary below. Markup outside the vocabulary is not an
error: unknown wrapper tags are dropped and their children lifted, and
bare text at block level is wrapped in a paragraph. The codec always
emits the canonical form, so feeding its output back in is a no-op.

## Block elements

` + "```" + `html
<p>paragraph text</p>
<h1>..</h1> through <h6>..</h6>
<blockquote><p>quoted</p></blockquote>
<ul><li><p>item</p></li></ul>
<ol><li><p>item</p></li></ol>
<pre><code class="language-go">code</code></pre>
<hr>
<table><tr><th>..</th></tr><tr><td>..</td></tr></table>
` + "```" + `

## Inline marks

` + "```" + `html
<strong>bold</strong> <em>italic</em> <u>underline</u> <s>strike</s>
<code>inline code</code>
<a href="https://..." target="_blank">link</a>
<span data-color="#ff0000">colored</span>
<mark data-color="#ffff00">highlighted</mark>
` + "```" + `

## Atoms and embeds

` + "```" + `html
<img src="..." data-width="300px" data-height="200px">
<div data-type="linkCard" data-url="https://..." data-title="..." data-description="..." data-domain="..." data-card-type="github"></div>
<audio src="blob:laguz/..." controls></audio>
<video src="..." controls></video>
` + "```" + `

## Rules

1. **Line breaks** inside text are ` + "`" + `<br>` + "`" + ` elements; the codec maps them
   to newline characters and back.
2. **Attributes** carrying editor state use ` + "`" + `data-*` + "`" + ` names. When both a
   ` + "`" + `data-*` + "`" + ` attribute and an equivalent ` + "`" + `style` + "`" + ` declaration are present,
   the ` + "`" + `data-*` + "`" + ` value wins.
3. **Defaults are omitted** on output. An attribute equal to its schema
   default never appears in serialized markup.
4. **Table cells** may carry ` + "`" + `data-background-color` + "`" + `, ` + "`" + `data-text-color` + "`" + `,
   ` + "`" + `data-border-width/style/color` + "`" + `, ` + "`" + `data-padding` + "`" + ` and ` + "`" + `data-align` + "`" + `.
5. **Documents end with an empty paragraph** when the last block is not a
   paragraph or heading; the editor appends it automatically.
6. **Encoding** is UTF-8. Text content is escaped per standard HTML rules.

## Example

` + "```" + `html
<h2>Weekly standup</h2>
<p>Attendees: <strong>Alice</strong>, Bob.</p>
<table>
  <tr><th>Owner</th><th>Item</th></tr>
  <tr><td data-background-color="#ffcc00">Alice</td><td>Review design</td></tr>
</table>
<p></p>
` + "```" + `
`
