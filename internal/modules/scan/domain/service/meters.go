package service

import (
	"regexp"
	"strconv"
	"strings"

	"winescan-app/internal/modules/scan/domain"
)

// 各次元の基準値
const (
	baselineSotma      = 1.5
	baselineFyllighet  = 2.5
	baselineFruktighet = 2.5
	baselineFruktsyra  = 2.5

	intensifierFactor = 1.2
	hedgeFactor       = 0.8
)

// meterRule 正規表現に一致したら固定の増減、またはevalで数値を解釈して増減
type meterRule struct {
	pattern *regexp.Regexp
	delta   float64
	eval    func(text string) float64
}

func (r meterRule) apply(text string) float64 {
	if r.eval != nil {
		return r.eval(text)
	}
	if r.pattern.MatchString(text) {
		return r.delta
	}
	return 0
}

type meterDimension struct {
	name     string
	baseline float64
	rules    []meterRule
}

func rule(pattern string, delta float64) meterRule {
	return meterRule{pattern: regexp.MustCompile(pattern), delta: delta}
}

// ルールはすべて加算（最初の一致で止めない）。入力はFoldText済みのテキスト
var meterDimensions = []meterDimension{
	{
		name:     domain.MeterSotma,
		baseline: baselineSotma,
		rules: []meterRule{
			rule(`\b(sweet|sot|sota|sott|dessert|dessertvin|dolce|dulce|doux|suss|moelleux)\b`, 2.0),
			rule(`\b(late harvest|sen skord|spatlese|auslese|beerenauslese|trockenbeerenauslese|sauternes|tokaji aszu|aszu|ice ?wine|eiswein|passito|vin santo|portvin|port wine|moscato|recioto)\b`, 1.5),
			rule(`\b(off[- ]dry|halvtorr|halvsot|medium[- ]dry|demi[- ]sec|feinherb|halbtrocken|abboccato|amabile)\b`, 2.0),
			rule(`\b(honey|honung|caramel|karamell|kola|marmalade|marmelad|syltad|candied)\b`, 0.5),
			rule(`\b(dry|torr|torrt|brut|trocken|secco|seco)\b`, -1.0),
			rule(`\b(extra brut|brut nature|zero dosage|pas dose|benstorr|bone dry)\b`, -0.5),
			{eval: sugarDelta},
		},
	},
	{
		name:     domain.MeterFyllighet,
		baseline: baselineFyllighet,
		rules: []meterRule{
			rule(`\b(full[- ]bodied|fyllig|fylligt|kraftig|kraftigt|powerful|rich|rik|rikt|concentrated|koncentrerad|koncentrerat|opulent|massive|dense|tat)\b`, 1.0),
			rule(`\b(light[- ]bodied|light|latt|lattdrucken|delicate|spritsig|airy)\b`, -1.0),
			rule(`\b(elegant|slender|smal)\b`, -0.5),
			rule(`\b(amarone|barolo|shiraz|syrah|malbec|zinfandel|primitivo|cabernet sauvignon|nebbiolo|tannat|mourvedre)\b`, 0.5),
			rule(`\b(pinot noir|gamay|beaujolais|vinho verde|muscadet|txakoli|moscato d'?asti)\b`, -0.5),
			rule(`\b(oak|oaked|ek|ekfat\w*|barrique|fatlagra\w*)\b`, 0.5),
			{eval: alcoholDelta},
		},
	},
	{
		name:     domain.MeterFruktighet,
		baseline: baselineFruktighet,
		rules: []meterRule{
			rule(`\b(fruity|fruktig|fruktigt|jammy|syltig|ripe|mogen|moget|mogna|juicy|saftig|saftigt|fruit[- ]forward)\b`, 1.0),
			rule(`\b(cherry|cherries|korsbar|plum|plommon|blackberr|bjornbar|cassis|svarta vinbar|blackcurrant|raspberr|hallon|strawberr|jordgubb|peach|persika|apricot|aprikos|tropical|tropisk|mango|pineapple|ananas|passion ?fruit|passionsfrukt|melon)`, 0.5),
			rule(`\b(earthy|jordig|jordigt|mineral|mineralisk|mineraliskt|stony|herbal|orter|ortig|leather|lader|tobacco|tobak|savory|mushroom|svamp)\b`, -0.5),
			rule(`\b(austere|stram|stramt|lean|mager|magert|closed|sluten)\b`, -1.0),
		},
	},
	{
		name:     domain.MeterFruktsyra,
		baseline: baselineFruktsyra,
		rules: []meterRule{
			rule(`\b(crisp|frisk|friskt|fresh|high acidity|hog syra|hog fruktsyra|syrlig|syrligt|syrliga|zesty|tart|racy|livlig|livligt|vibrant|nerv)\b`, 1.0),
			rule(`\b(citrus|citrusfrukt|lemon|citron|lime|grapefruit|grapefrukt|green apple|grona apple|gront apple)`, 0.5),
			rule(`\b(soft|mjuk|mjukt|round|rund|runt|low acidity|lag syra|flabby|smooth|len|lent|creamy|kramig)\b`, -1.0),
			rule(`\b(riesling|sauvignon blanc|chenin blanc|albarino|gruner veltliner|furmint|champagne|chablis|barbera|sangiovese|assyrtiko)\b`, 0.5),
			rule(`\b(viognier|marsanne|roussanne|amarone|zinfandel|primitivo|gewurztraminer)\b`, -0.5),
		},
	},
}

var (
	intensifiers = regexp.MustCompile(`\b(very|extremely|intensely|incredibly|highly|deeply|hugely|mycket|valdigt|extremt|intensiv|intensivt|markant|markanta|kraftfull|enormt)\b`)
	hedges       = regexp.MustCompile(`\b(a touch of|hint of|hints of|a hint|slightly|a bit|somewhat|subtle|lite|nagot|antydan|aning|en touch|svag|svagt)\b`)

	sugarPattern   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:g/l|g/liter|gram/liter|grams? per lit(?:er|re)|gram per liter|g per lit(?:er|re))`)
	alcoholPattern = regexp.MustCompile(`(\d{1,2}(?:[.,]\d{1,2})?)\s*%`)
)

// sugarDelta 残糖量（g/l）から甘さの増減を求める
func sugarDelta(text string) float64 {
	m := sugarPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	grams, err := parseDecimal(m[1])
	if err != nil {
		return 0
	}

	switch {
	case grams < 4:
		return -0.5
	case grams < 12:
		return 0.5
	case grams < 45:
		return 1.5
	default:
		return 3.0
	}
}

// alcoholDelta アルコール度数からボディの増減を求める
// 5〜25%の範囲外は度数とみなさない
func alcoholDelta(text string) float64 {
	for _, m := range alcoholPattern.FindAllStringSubmatch(text, -1) {
		abv, err := parseDecimal(m[1])
		if err != nil || abv < 5 || abv > 25 {
			continue
		}

		switch {
		case abv < 11:
			return -1.0
		case abv < 12.5:
			return -0.5
		case abv < 13.5:
			return 0
		case abv < 14.5:
			return 0.5
		default:
			return 1.0
		}
	}
	return 0
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// intensityFactor 強調語で基準値からの偏差を拡大、控えめな表現で縮小する
func intensityFactor(text string) float64 {
	factor := 1.0
	if intensifiers.MatchString(text) {
		factor *= intensifierFactor
	}
	if hedges.MatchString(text) {
		factor *= hedgeFactor
	}
	return factor
}

// DeriveMeters 自由記述テキストから4つのメーター値をルールベースで推定する
// 結果は[0,5]・小数1桁。同じ入力には常に同じ結果を返す
func DeriveMeters(text string) domain.TasteProfile {
	folded := FoldText(text)
	factor := intensityFactor(folded)

	values := make(map[string]float64, len(meterDimensions))
	for _, dim := range meterDimensions {
		v := dim.baseline
		for _, r := range dim.rules {
			v += r.apply(folded)
		}
		v = dim.baseline + (v-dim.baseline)*factor
		values[dim.name] = ClampMeter(v)
	}

	return domain.TasteProfile{
		Sotma:      values[domain.MeterSotma],
		Fyllighet:  values[domain.MeterFyllighet],
		Fruktighet: values[domain.MeterFruktighet],
		Fruktsyra:  values[domain.MeterFruktsyra],
	}
}

// FillMissing AIが返さなかった次元だけをヒューリスティック値で埋める
// AIが返した値は上書きしない。埋めた次元名を返す
func FillMissing(partial domain.PartialTaste, text string) (domain.TasteProfile, []string) {
	profile := domain.TasteProfile{Tannin: partial.Tannin, Ek: partial.Ek}
	missing := partial.CoreMissing()

	var derived domain.TasteProfile
	if len(missing) > 0 {
		derived = DeriveMeters(text)
	}

	profile.Sotma = pick(partial.Sotma, derived.Sotma)
	profile.Fyllighet = pick(partial.Fyllighet, derived.Fyllighet)
	profile.Fruktighet = pick(partial.Fruktighet, derived.Fruktighet)
	profile.Fruktsyra = pick(partial.Fruktsyra, derived.Fruktsyra)

	return profile, missing
}

func pick(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}
