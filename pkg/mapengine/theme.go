package mapengine

import "image/color"

// ThemeName selects the dark or light palette.
type ThemeName string

const (
	ThemeDark  ThemeName = "dark"
	ThemeLight ThemeName = "light"
)

// Theme holds every color the renderer and overlay need.
type Theme struct {
	Name       ThemeName
	Background color.RGBA
	Ocean      color.RGBA
	NoData     color.RGBA // countries absent from the dataset
	FillHigh   color.RGBA
	FillMedium color.RGBA
	FillLow    color.RGBA
	Border     color.RGBA
	Highlight  color.RGBA // hover stroke
	TooltipBG  color.RGBA
	TooltipFG  color.RGBA
	PanelBG    color.RGBA
	PanelLine  color.RGBA
	Text       color.RGBA
	Accent     color.RGBA
}

func DarkTheme() Theme {
	return Theme{
		Name:       ThemeDark,
		Background: color.RGBA{8, 10, 15, 255},
		Ocean:      color.RGBA{8, 10, 15, 255},
		NoData:     color.RGBA{26, 29, 35, 255},
		FillHigh:   color.RGBA{220, 53, 69, 255},
		FillMedium: color.RGBA{255, 179, 0, 255},
		FillLow:    color.RGBA{64, 160, 90, 255},
		Border:     color.RGBA{36, 42, 53, 255},
		Highlight:  color.RGBA{0, 191, 255, 255},
		TooltipBG:  color.RGBA{0, 0, 0, 200},
		TooltipFG:  color.RGBA{235, 238, 245, 255},
		PanelBG:    color.RGBA{0, 0, 0, 100},
		PanelLine:  color.RGBA{36, 42, 53, 255},
		Text:       color.RGBA{235, 238, 245, 255},
		Accent:     color.RGBA{0, 191, 255, 255},
	}
}

func LightTheme() Theme {
	return Theme{
		Name:       ThemeLight,
		Background: color.RGBA{244, 246, 250, 255},
		Ocean:      color.RGBA{244, 246, 250, 255},
		NoData:     color.RGBA{214, 219, 228, 255},
		FillHigh:   color.RGBA{200, 35, 51, 255},
		FillMedium: color.RGBA{222, 146, 0, 255},
		FillLow:    color.RGBA{40, 130, 66, 255},
		Border:     color.RGBA{170, 178, 192, 255},
		Highlight:  color.RGBA{0, 102, 204, 255},
		TooltipBG:  color.RGBA{255, 255, 255, 235},
		TooltipFG:  color.RGBA{20, 24, 31, 255},
		PanelBG:    color.RGBA{255, 255, 255, 190},
		PanelLine:  color.RGBA{170, 178, 192, 255},
		Text:       color.RGBA{20, 24, 31, 255},
		Accent:     color.RGBA{0, 102, 204, 255},
	}
}

// ThemeByName defaults to dark for unknown names.
func ThemeByName(name ThemeName) Theme {
	if name == ThemeLight {
		return LightTheme()
	}
	return DarkTheme()
}

// FillFor applies the dataset fill rule: level color when a record exists,
// neutral otherwise.
func (t Theme) FillFor(rec *RiskRecord) color.RGBA {
	if rec == nil {
		return t.NoData
	}
	switch rec.RiskLevel {
	case RiskHigh:
		return t.FillHigh
	case RiskMedium:
		return t.FillMedium
	default:
		return t.FillLow
	}
}
