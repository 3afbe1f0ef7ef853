package extract

import (
	"strings"
	"testing"
)

func TestRegistrationDate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "number and date label",
			text: "... registration number, date of registration: 14269 from 01.12.2025 ...",
			want: "01.12.2025",
		},
		{
			name: "ukrainian number and date label",
			text: "Номер, дата реєстрації: 14269 від 01.12.2025 Ініціатор: Кабінет Міністрів 02.12.2025",
			want: "01.12.2025",
		},
		{
			name: "latin i variant",
			text: "НОМЕР, ДАТА РЕЄСТРАЦIЇ: 14270 від 03.12.2025",
			want: "03.12.2025",
		},
		{
			name: "fallback tier",
			text: "date of registration: 03.02.2024",
			want: "03.02.2024",
		},
		{
			name: "ukrainian fallback tier",
			text: "Дата реєстрації:\n   03.02.2024",
			want: "03.02.2024",
		},
		{
			name: "date beyond lookahead",
			text: "Дата реєстрації: " + strings.Repeat("x", 50) + " 03.02.2024",
			want: "",
		},
		{
			name: "decomposed diacritic",
			text: "Дата реєстрац\u0456\u0308: 04.03.2024",
			want: "04.03.2024",
		},
		{
			name: "no date",
			text: "registration number, date of registration: pending",
			want: "",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := RegistrationDate(tc.text); got != tc.want {
				t.Fatalf("RegistrationDate() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRegistrationDatePrefersPrimaryTier(t *testing.T) {
	t.Parallel()

	text := "Дата реєстрації: 10.10.2024 ... Номер, дата реєстрації: 555 від 11.11.2024"
	if got := RegistrationDate(text); got != "11.11.2024" {
		t.Fatalf("expected primary tier date, got %q", got)
	}
}
