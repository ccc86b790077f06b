package security

import (
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "通常テキストはそのまま", input: "Отличный клёв сегодня!", want: "Отличный клёв сегодня!"},
		{name: "前後の空白を除去", input: "  Привет  \n", want: "Привет"},
		{name: "scriptタグを除去", input: `<script>alert(1)</script>Щука`, want: "Щука"},
		{name: "タグのみは空になる", input: "<b></b>", want: ""},
		{name: "アンパサンドを保持", input: "Лодка & снасти", want: "Лодка & снасти"},
		{name: "引用符を保持", input: `Озеро "Светлое"`, want: `Озеро "Светлое"`},
		{name: "属性付きタグを除去", input: `<img src=x onerror=alert(1)>Окунь`, want: "Окунь"},
		{name: "比較記号を保持", input: "вес < 2 кг, длина >30 см", want: "вес < 2 кг, длина >30 см"},
		{name: "要素名でない山括弧を保持", input: "x<zz и yy>w", want: "x<zz и yy>w"},
		{name: "未知タグ内のアンパサンドを保持", input: "<лодка & вёсла>", want: "<лодка & вёсла>"},
		{name: "閉じタグ風の未知名を保持", input: "итог</qq>", want: "итог</qq>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 既知の要素名で始まる並びはタグとみなされ、中身ごと失われる。
func TestPlainText_KnownElementNameIsStripped(t *testing.T) {
	got := NewSanitizer().PlainText("a<b и c>d")
	if strings.Contains(got, "и") || !strings.HasPrefix(got, "a") || !strings.HasSuffix(got, "d") {
		t.Errorf("PlainText() = %q, want the <b ...> tag removed", got)
	}
}

func TestSummary_AllowsBasicFormatting(t *testing.T) {
	s := NewSanitizer()

	got := s.Summary(`<p>Открытие <strong>сезона</strong></p><ul><li>пункт</li></ul>`)
	for _, want := range []string{"<p>", "<strong>сезона</strong>", "<li>пункт</li>"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary output %q should contain %q", got, want)
		}
	}
}

func TestSummary_StripsDangerousContent(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name       string
		input      string
		notContain []string
	}{
		{name: "script", input: `<p>x</p><script>alert(1)</script>`, notContain: []string{"<script", "alert"}},
		{name: "iframe", input: `<iframe src="https://evil.example.com"></iframe>`, notContain: []string{"<iframe"}},
		{name: "onclick", input: `<p onclick="steal()">x</p>`, notContain: []string{"onclick"}},
		{name: "javascript href", input: `<a href="javascript:alert(1)">x</a>`, notContain: []string{"javascript:"}},
		{name: "img", input: `<img src="https://example.com/a.png">`, notContain: []string{"<img"}},
		{name: "relative href", input: `<a href="/local">x</a>`, notContain: []string{"/local"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Summary(tt.input)
			for _, bad := range tt.notContain {
				if strings.Contains(got, bad) {
					t.Errorf("Summary(%q) = %q, should not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestSummary_LinksOpenInNewTab(t *testing.T) {
	s := NewSanitizer()

	got := s.Summary(`<a href="https://club.example.com/news/1">Подробнее</a>`)
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("expected target=_blank, got %q", got)
	}
	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("expected rel=noopener noreferrer, got %q", got)
	}
}

func TestSummary_EmptyInput(t *testing.T) {
	if got := NewSanitizer().Summary(""); got != "" {
		t.Errorf("Summary(\"\") = %q, want empty", got)
	}
}
