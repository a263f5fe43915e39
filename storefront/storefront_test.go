package storefront

import "testing"

func TestForURL_HostSelection(t *testing.T) {
	cases := []struct {
		url      string
		platform string
		ok       bool
	}{
		{"https://store.steampowered.com/app/367520/Hollow_Knight/", "steam", true},
		{"https://store.epicgames.com/en-US/p/hollow-knight", "epic", true},
		{"https://www.gog.com/en/game/cyberpunk_2077", "gog", true},
		{"https://gog.com/game/cyberpunk_2077", "gog", true},
		{"https://example.com/app/123", "", false},
		{"https://steampowered.com.evil.com/app/1", "", false},
		{"not a url at all\x00", "", false},
	}
	for _, tc := range cases {
		sf, ok := ForURL(tc.url)
		if ok != tc.ok {
			t.Errorf("ForURL(%q): ok = %v, want %v", tc.url, ok, tc.ok)
			continue
		}
		if ok && sf.Platform != tc.platform {
			t.Errorf("ForURL(%q): platform = %q, want %q", tc.url, sf.Platform, tc.platform)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		url  string
		want PageKind
	}{
		{"https://store.steampowered.com/app/367520/Hollow_Knight/", KindProduct},
		{"https://store.steampowered.com/cart/", KindCart},
		{"https://store.steampowered.com/", KindOther},
		{"https://store.steampowered.com/search/?term=foo", KindOther},
		{"https://store.epicgames.com/en-US/p/hollow-knight", KindProduct},
		{"https://store.epicgames.com/p/hollow-knight", KindProduct},
		{"https://store.epicgames.com/en-US/cart", KindCart},
		{"https://store.epicgames.com/en-US/browse", KindOther},
		{"https://www.gog.com/en/game/cyberpunk_2077", KindProduct},
		{"https://www.gog.com/game/cyberpunk_2077", KindProduct},
		{"https://www.gog.com/en/checkout", KindCart},
		{"https://www.gog.com/en/games", KindOther},
	}
	for _, tc := range cases {
		sf, ok := ForURL(tc.url)
		if !ok {
			t.Fatalf("ForURL(%q): unsupported", tc.url)
		}
		if got := sf.Classify(tc.url); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestValidTitle_EpicChromeRejection(t *testing.T) {
	sf, _ := ByPlatform("epic")

	cases := []struct {
		title string
		want  bool
	}{
		{"Hollow Knight", true},
		{"Up", false},                     // under the 3-char minimum
		{"Epic Games Store", false},       // brand chrome
		{"Welcome to the Epic Games", false},
		{"", false},
		{"   ", false},
	}
	for _, tc := range cases {
		if got := sf.ValidTitle(tc.title); got != tc.want {
			t.Errorf("epic ValidTitle(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}

func TestValidTitle_NoValidationConfigured(t *testing.T) {
	sf, _ := ByPlatform("steam")
	if !sf.ValidTitle("Up") {
		t.Error("steam has no minimum length; short titles are valid")
	}
	if sf.ValidTitle("  ") {
		t.Error("blank is never valid")
	}
}

func TestByPlatform(t *testing.T) {
	if _, ok := ByPlatform("steam"); !ok {
		t.Error("steam missing from table")
	}
	if _, ok := ByPlatform("itchio"); ok {
		t.Error("unknown platform should not resolve")
	}
}

func TestPageKind_String(t *testing.T) {
	if KindProduct.String() != "product" || KindCart.String() != "cart" || KindOther.String() != "other" {
		t.Error("PageKind string labels drifted")
	}
}
