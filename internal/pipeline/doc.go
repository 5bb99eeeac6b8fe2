// Package pipeline implements the notebook-to-HTML stage of conversion.
//
// This package turns a parsed notebook into one standalone HTML page:
//   - markdown cells via Goldmark, with TeX spans shielded from the parser
//   - code cells via chroma, with prompts and inputs optionally dropped
//   - outputs by MIME priority; chart outputs become numbered placeholders
//     and their payloads are embedded as a JSON script
//   - attachments inlined as data URIs, relative paths rewritten to file://
//   - math detection on the rendered page (goquery)
//   - CSS and script injection into the finished page
//
// Printing is handled by the root nb2pdf package through a headless
// browser; the in-page wait for charts and math lives in the coordinator
// package.
package pipeline
