package memory

import "github.com/ballog/ballog-api/internal/domain/team"

// SeedTeams returns the ten KBO clubs. Codes are the provider's short team
// codes.
func SeedTeams() []team.Team {
	return []team.Team{
		{ID: "kbo-lg", Name: "LG Twins", ShortName: "LG", Code: "LG", PrimaryColor: "#C30452"},
		{ID: "kbo-kt", Name: "KT Wiz", ShortName: "KT", Code: "KT", PrimaryColor: "#000000"},
		{ID: "kbo-ssg", Name: "SSG Landers", ShortName: "SSG", Code: "SK", PrimaryColor: "#CE0E2D"},
		{ID: "kbo-nc", Name: "NC Dinos", ShortName: "NC", Code: "NC", PrimaryColor: "#315288"},
		{ID: "kbo-doosan", Name: "Doosan Bears", ShortName: "Doosan", Code: "OB", PrimaryColor: "#131230"},
		{ID: "kbo-kia", Name: "KIA Tigers", ShortName: "KIA", Code: "HT", PrimaryColor: "#EA0029"},
		{ID: "kbo-lotte", Name: "Lotte Giants", ShortName: "Lotte", Code: "LT", PrimaryColor: "#041E42"},
		{ID: "kbo-samsung", Name: "Samsung Lions", ShortName: "Samsung", Code: "SS", PrimaryColor: "#074CA1"},
		{ID: "kbo-hanwha", Name: "Hanwha Eagles", ShortName: "Hanwha", Code: "HH", PrimaryColor: "#F37321"},
		{ID: "kbo-kiwoom", Name: "Kiwoom Heroes", ShortName: "Kiwoom", Code: "WO", PrimaryColor: "#820024"},
	}
}
