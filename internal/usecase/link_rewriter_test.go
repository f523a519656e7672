package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/page-archive-service/internal/entity"
)

func TestRewriteAttachmentLinks_ByteIdentical(t *testing.T) {
	mapping := entity.AttachmentMapping{}
	mapping.Add("55", "report.docx", "attachments/9_report.docx")

	in := `<div class="x"><a href="/download/attachments/55/report.docx" title="r">Report</a> <p>keep   this</p></div>`
	want := `<div class="x"><a href="attachments/9_report.docx" title="r">Report</a> <p>keep   this</p></div>`

	assert.Equal(t, want, RewriteAttachmentLinks(in, "55", mapping))
}

func TestRewriteAttachmentLinks(t *testing.T) {
	mapping := entity.AttachmentMapping{}
	mapping.Add("55", "Load Report.pdf", "attachments/9_Load_Report.pdf")
	mapping.Add("55", "Load_Report.pdf", "attachments/9_Load_Report.pdf")
	mapping.Add("55", "graph.png", "attachments/10_graph.png")
	mapping.Add("77", "other.png", "attachments/11_other.png")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "percent decoded with query",
			in:   `<a href="https://wiki.example.com/wiki/download/attachments/55/Load%20Report.pdf?version=1&amp;api=v2">x</a>`,
			want: `<a href="attachments/9_Load_Report.pdf">x</a>`,
		},
		{
			name: "plus as space",
			in:   `<a href="/download/attachments/55/Load+Report.pdf">x</a>`,
			want: `<a href="attachments/9_Load_Report.pdf">x</a>`,
		},
		{
			name: "sanitized name keeps extension",
			in:   `<a href="/download/attachments/55/Load%3AReport.pdf">x</a>`,
			want: `<a href="attachments/9_Load_Report.pdf">x</a>`,
		},
		{
			name: "single quoted src",
			in:   `<img src='/wiki/download/attachments/55/graph.png?api=v2' alt="g">`,
			want: `<img src='attachments/10_graph.png' alt="g">`,
		},
		{
			name: "uppercase attribute and spacing",
			in:   `<IMG SRC = "/download/attachments/55/graph.png">`,
			want: `<IMG SRC = "attachments/10_graph.png">`,
		},
		{
			name: "link scoped to another page",
			in:   `<img src="/download/attachments/77/other.png">`,
			want: `<img src="attachments/11_other.png">`,
		},
		{
			name: "unknown attachment left untouched",
			in:   `<a href="/download/attachments/55/missing.zip">m</a>`,
			want: `<a href="/download/attachments/55/missing.zip">m</a>`,
		},
		{
			name: "non attachment links untouched",
			in:   `<a href="https://example.com/page">p</a><img src="/images/icons/a.png">`,
			want: `<a href="https://example.com/page">p</a><img src="/images/icons/a.png">`,
		},
		{
			name: "text outside attributes untouched",
			in:   `<p>/download/attachments/55/graph.png</p><img src="/download/attachments/55/graph.png">`,
			want: `<p>/download/attachments/55/graph.png</p><img src="attachments/10_graph.png">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewriteAttachmentLinks(tt.in, "55", mapping))
		})
	}
}

func TestRewriteAttachmentLinks_FallsBackToCurrentPage(t *testing.T) {
	mapping := entity.AttachmentMapping{}
	mapping.Add("55", "graph.png", "attachments/10_graph.png")

	in := `<img src="/download/attachments/12/graph.png">`
	assert.Equal(t, `<img src="attachments/10_graph.png">`, RewriteAttachmentLinks(in, "55", mapping))
}

func TestRewriteAttachmentLinks_EmptyMapping(t *testing.T) {
	in := `<a href="/download/attachments/55/report.docx">r</a>`
	assert.Equal(t, in, RewriteAttachmentLinks(in, "55", nil))
}
