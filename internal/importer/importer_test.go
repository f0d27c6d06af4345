package importer

import (
	"errors"
	"strings"
	"testing"
)

const chairCSV = `1,チェア,説明,/images/chair/1.png,5000,90,50,55,黒,肘掛け付き,座椅子,120,4
2,"名前, カンマ",説明,/images/chair/2.png,12000,150,70,70,白,,ゲーミングチェア,3,1

`

const estateCSV = `10,物件,説明,/images/estate/10.png,東京都,35.681,139.767,80000,120,90,駐車場あり,55
`

func TestParseChairs(t *testing.T) {
	chairs, err := ParseChairs(strings.NewReader(chairCSV))
	if err != nil {
		t.Fatalf("ParseChairs: %v", err)
	}
	if len(chairs) != 2 {
		t.Fatalf("len=%d want 2 (blank line skipped)", len(chairs))
	}
	c := chairs[0]
	if c.ID != 1 || c.Price != 5000 || c.Height != 90 || c.Width != 50 || c.Depth != 55 ||
		c.Color != "黒" || c.Kind != "座椅子" || c.Popularity != 120 || c.Stock != 4 {
		t.Fatalf("chair[0]=%+v", c)
	}
	if chairs[1].Name != "名前, カンマ" || chairs[1].Features != "" {
		t.Fatalf("chair[1]=%+v", chairs[1])
	}
}

func TestParseEstates(t *testing.T) {
	estates, err := ParseEstates(strings.NewReader(estateCSV))
	if err != nil {
		t.Fatalf("ParseEstates: %v", err)
	}
	if len(estates) != 1 {
		t.Fatalf("len=%d want 1", len(estates))
	}
	e := estates[0]
	if e.ID != 10 || e.Latitude != 35.681 || e.Longitude != 139.767 || e.Rent != 80000 ||
		e.DoorHeight != 120 || e.DoorWidth != 90 || e.Features != "駐車場あり" || e.Popularity != 55 {
		t.Fatalf("estate=%+v", e)
	}
}

func TestParse_RowErrors(t *testing.T) {
	tests := []struct {
		name     string
		parse    func(string) error
		input    string
		wantLine int
	}{
		{
			name:     "chair short row",
			parse:    func(s string) error { _, err := ParseChairs(strings.NewReader(s)); return err },
			input:    chairCSV + "3,x,y\n",
			wantLine: 4,
		},
		{
			name:     "chair bad number",
			parse:    func(s string) error { _, err := ParseChairs(strings.NewReader(s)); return err },
			input:    "1,a,b,c,cheap,1,1,1,黒,,座椅子,1,1\n",
			wantLine: 1,
		},
		{
			name:     "chair negative stock",
			parse:    func(s string) error { _, err := ParseChairs(strings.NewReader(s)); return err },
			input:    "1,a,b,c,1,1,1,1,黒,,座椅子,1,-1\n",
			wantLine: 1,
		},
		{
			name:     "estate bad latitude",
			parse:    func(s string) error { _, err := ParseEstates(strings.NewReader(s)); return err },
			input:    estateCSV + "11,a,b,c,d,north,139,1,1,1,,1\n",
			wantLine: 2,
		},
		{
			name:     "estate header row is data",
			parse:    func(s string) error { _, err := ParseEstates(strings.NewReader(s)); return err },
			input:    "id,name,description,thumbnail,address,latitude,longitude,rent,door_height,door_width,features,popularity\n",
			wantLine: 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.parse(tc.input)
			var re *RowError
			if !errors.As(err, &re) {
				t.Fatalf("err=%v want *RowError", err)
			}
			if re.Line != tc.wantLine {
				t.Fatalf("line=%d want %d", re.Line, tc.wantLine)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	chairs, err := ParseChairs(strings.NewReader(""))
	if err != nil || len(chairs) != 0 {
		t.Fatalf("chairs=%v err=%v", chairs, err)
	}
}
