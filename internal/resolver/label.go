package resolver

type Color string

const (
	ColorGray   Color = "gray"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
)

type Label struct {
	Text  string `json:"label"`
	Color Color  `json:"color"`
}

// пресеты кнопок быстрого выбора
var presets = map[int]Label{
	0:   {"Not Started", ColorGray},
	5:   {"Started", ColorRed},
	25:  {"In Progress", ColorOrange},
	50:  {"On Track", ColorYellow},
	75:  {"Near Completion", ColorBlue},
	100: {"Completed", ColorGreen},
}

// верхние границы диапазонов, включительно
var ranges = []struct {
	upTo  int
	label Label
}{
	{25, Label{"In Progress", ColorOrange}},
	{50, Label{"On Track", ColorYellow}},
	{75, Label{"Near Completion", ColorBlue}},
	{100, Label{"Completed", ColorGreen}},
}

func ProgressLabel(percent int) Label {
	percent = Clamp(percent)
	if l, ok := presets[percent]; ok {
		return l
	}
	for _, r := range ranges {
		if percent <= r.upTo {
			return r.label
		}
	}
	return presets[100]
}

func IsPreset(percent int) bool {
	_, ok := presets[percent]
	return ok
}

func Clamp(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
