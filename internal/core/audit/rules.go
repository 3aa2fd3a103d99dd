package audit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// rule は1つの独立したチェックです。違反が無ければnilを返します。
// ルール同士は互いに影響せず、順序どおりにすべて実行されます
type rule func(c *contract, now time.Time) []Finding

var rules = []rule{
	checkForm,
	checkTerm,
	checkPaymentTerm,
	checkPrepayment,
	checkAcceptance,
	checkPaymentDay,
	checkDisputeProtocol,
	checkChanges,
	checkSpecification,
	checkFramework,
}

// ロシア語の月名（生格）から月番号への対応
var monthMap = map[string]time.Month{
	"января": time.January, "февраля": time.February, "марта": time.March,
	"апреля": time.April, "мая": time.May, "июня": time.June,
	"июля": time.July, "августа": time.August, "сентября": time.September,
	"октября": time.October, "ноября": time.November, "декабря": time.December,
}

var (
	durationRe  = regexp.MustCompile(`(?:^|[^0-9])(\d{1,2})\s*(?:год[а-яё]*|лет|месяц[а-яё]*)`)
	numericDate = regexp.MustCompile(`(?:до|по)\s+(\d{1,2})\.(\d{1,2})\.(20\d\d)`)
	namedDate   = regexp.MustCompile(`(?:до|по)\s+(\d{1,2})\s+([а-яё]+)\s+(20\d\d)`)
	paymentRe   = regexp.MustCompile(`(?i)(?:течение|срок|в)\s+(\d+)\s+(календарн[а-яё]*|рабочих?)\s+дн[а-яё]*`)
	prepayRe    = regexp.MustCompile(`предоплат|аванс`)
	acceptRe    = regexp.MustCompile(`(?i)(?:прием|акт)[^.\n]*?(\d+)\s*рабочих?\s*дн`)
	digitRe     = regexp.MustCompile(`\d`)
)

// 1. 契約書が自社の承認済み標準書式で作成されているか
func checkForm(c *contract, _ time.Time) []Finding {
	keywords := []string{
		"по форме контрагента", "форме поставщика", "форме подрядчика",
		"форме исполнителя", "не по форме, утверждённой",
	}
	for _, kw := range keywords {
		idx := strings.Index(c.lower, kw)
		if idx == -1 {
			continue
		}
		start := strings.LastIndex(c.raw[:idx], ".") + 1
		end := indexFrom(c.raw, ".", idx)
		if end == -1 {
			end = floorRune(c.raw, idx+100)
		}
		return []Finding{{
			Description: "Договор составлен по форме контрагента, а не по утвержденной стандартной форме",
			Evidence:    strings.TrimSpace(c.raw[start:end]),
		}}
	}
	return nil
}

// 2. 契約期間（3年以内、無期限・自動延長の禁止）
func checkTerm(c *contract, now time.Time) []Finding {
	var clause string
	if idx := strings.Index(c.lower, "срок действия"); idx != -1 {
		clause = strings.TrimSpace(c.raw[idx:clauseEnd(c.raw, idx)])
	} else if idx := strings.Index(c.lower, "договор действует"); idx != -1 {
		clause = strings.TrimSpace(c.raw[idx:clauseEnd(c.raw, idx)])
	}

	if clause == "" {
		return []Finding{{Description: "Срок действия договора не указан"}}
	}

	clauseLower := strings.ToLower(clause)
	if strings.Contains(clauseLower, "бессроч") ||
		strings.Contains(clauseLower, "автоматическ") ||
		strings.Contains(clauseLower, "пролонгац") ||
		strings.Contains(clauseLower, "полного выполн") {
		return []Finding{{
			Description: "Срок действия договора не ограничен 3 годами (бессрочный или с автоматической пролонгацией)",
			Evidence:    clause,
		}}
	}

	// 明示的な期間（「5 лет」「48 месяцев」など。「2027 года」のような暦年は除外）
	if m := durationRe.FindStringSubmatch(clauseLower); m != nil {
		num, _ := strconv.Atoi(m[1])
		if strings.Contains(m[0], "месяц") {
			if num > 36 {
				return []Finding{{
					Description: fmt.Sprintf("Срок действия договора превышает 3 года (%d мес.)", num),
					Evidence:    clause,
				}}
			}
		} else if num > 3 {
			return []Finding{{
				Description: fmt.Sprintf("Срок действия договора превышает 3 года (%d года)", num),
				Evidence:    clause,
			}}
		}
		return nil
	}

	// 明示的な終了日（「до 31.12.2028」「до 31 декабря 2028」）
	endDate, ok := parseEndDate(clauseLower)
	if !ok {
		return []Finding{{
			Description: "Срок действия договора не указан явно (нет конкретной конечной даты)",
			Evidence:    clause,
		}}
	}

	maxAllowed := now.AddDate(0, 0, 3*365)
	if endDate.After(maxAllowed) {
		years := endDate.Sub(now).Hours() / 24 / 365
		return []Finding{{
			Description: fmt.Sprintf("Срок действия договора превышает 3 года (%.1f года до %s)", years, endDate.Format("02.01.2006")),
			Evidence:    clause,
		}}
	}
	return nil
}

func parseEndDate(clauseLower string) (time.Time, bool) {
	if m := numericDate.FindStringSubmatch(clauseLower); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return makeDate(year, time.Month(month), day)
	}
	if m := namedDate.FindStringSubmatch(clauseLower); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		month, ok := monthMap[m[2]]
		if !ok {
			return time.Time{}, false
		}
		return makeDate(year, month, day)
	}
	return time.Time{}, false
}

func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		// 存在しない日付（例: 31 февраля）
		return time.Time{}, false
	}
	return t, true
}

// 3. 支払期限（60暦日以上。法令が短い期限を求める場合は例外）
func checkPaymentTerm(c *contract, _ time.Time) []Finding {
	if m := paymentRe.FindStringSubmatchIndex(c.raw); m != nil {
		matchText := c.raw[m[0]:m[1]]
		days, _ := strconv.Atoi(c.raw[m[2]:m[3]])

		if strings.Contains(strings.ToLower(matchText), "рабочих") {
			// 営業日指定: 42営業日 ≈ 60暦日
			if days < 43 {
				return []Finding{{
					Description: fmt.Sprintf("Срок оплаты установлен менее 60 календарных дней (%d рабочих дн.)", days),
					Evidence:    matchText,
				}}
			}
			return nil
		}

		if days < 60 {
			ctxStart := floorRune(c.lower, m[0]-100)
			ctxEnd := floorRune(c.lower, m[1]+100)
			context := c.lower[ctxStart:ctxEnd]
			if strings.Contains(context, "закона") || strings.Contains(context, " фз") ||
				strings.Contains(context, "федерального закона") {
				// 法令根拠の明示があれば違反としない
				return nil
			}
			return []Finding{{
				Description: fmt.Sprintf("Срок оплаты установлен менее 60 календарных дней (%d дн.)", days),
				Evidence:    matchText,
			}}
		}
		return nil
	}

	// 数値が無い場合は語で書かれた日数を探す。
	// 適合する行が見つかっても走査は打ち切らない（後続の行に違反があり得る）
	var findings []Finding
	found := false
	for _, line := range c.lines {
		lineLow := strings.ToLower(line)
		if !strings.Contains(lineLow, "оплат") && !strings.Contains(lineLow, "платеж") && !strings.Contains(lineLow, "расчет") {
			continue
		}
		if !strings.Contains(lineLow, "дней") && !strings.Contains(lineLow, "дня") {
			continue
		}
		if digitRe.MatchString(lineLow) {
			continue
		}
		if strings.Contains(lineLow, "шестидесяти") {
			// 「шестидесяти дней」= 60日なので適合
			found = true
			continue
		}
		if strings.Contains(lineLow, "двадцати") || strings.Contains(lineLow, "тридцати") ||
			strings.Contains(lineLow, "сорока") || strings.Contains(lineLow, "пятидесяти") {
			found = true
			desc := "менее 60 дней"
			switch {
			case strings.Contains(lineLow, "сорока пяти"):
				desc = "45 дней"
			case strings.Contains(lineLow, "сорока"):
				desc = "40 дней"
			case strings.Contains(lineLow, "тридцати пяти"):
				desc = "35 дней"
			case strings.Contains(lineLow, "тридцати"):
				desc = "30 дней"
			case strings.Contains(lineLow, "пятидесяти"):
				desc = "50 дней"
			case strings.Contains(lineLow, "двадцати"):
				desc = "20 дней"
			}
			findings = append(findings, Finding{
				Description: fmt.Sprintf("Срок оплаты установлен менее 60 календарных дней (%s)", desc),
				Evidence:    strings.TrimSpace(line),
			})
		}
	}
	if !found {
		findings = append(findings, Finding{Description: "Условие о сроке оплаты не найдено"})
	}
	return findings
}

// 4. 前払い（п.6.6 の条件を満たす場合のみ許容）
func checkPrepayment(c *contract, _ time.Time) []Finding {
	for _, m := range prepayRe.FindAllStringIndex(c.lower, -1) {
		start, end := sentenceBounds(c.raw, m[0])
		var sentence string
		if start < end {
			sentence = c.lower[start:end]
		} else {
			sentence = c.lower[start:]
		}

		// 否定表現（「без предоплаты」など）は違反にしない
		if sentence != "" && (strings.Contains(sentence, "без предоплат") ||
			strings.Contains(sentence, "без аванс") || strings.Contains(sentence, "не ")) {
			continue
		}

		evidence := strings.TrimSpace(c.raw[start:end])
		if c.containsAny("банковская гарантия", "банковской гарантии", "аккредитация", "одобрен", "полномочи") {
			return []Finding{{
				Description: "Предоплата требует проверки соблюдения всех условий п.6.6 (банковская гарантия, аккредитация, одобрения и др.)",
				Evidence:    evidence,
			}}
		}
		return []Finding{{
			Description: "Предусмотрена предоплата без соблюдения требований п.6.6 (отсутствуют банковская гарантия, аккредитация, одобрения)",
			Evidence:    evidence,
		}}
	}
	return nil
}

// 5. 役務・作業の検収期間（5営業日以上。物品のみの契約には適用しない）
func checkAcceptance(c *contract, _ time.Time) []Finding {
	if !c.containsAny("услуг", "работ") {
		return nil
	}
	if m := acceptRe.FindStringSubmatchIndex(c.raw); m != nil {
		matchText := c.raw[m[0]:m[1]]
		days, _ := strconv.Atoi(c.raw[m[2]:m[3]])
		if days < 5 {
			return []Finding{{
				Description: fmt.Sprintf("Срок приемки результатов работ/услуг менее 5 рабочих дней (%d дн.)", days),
				Evidence:    matchText,
			}}
		}
		return nil
	}
	return []Finding{{Description: "Срок приемки работ/услуг не указан (требуется ≥ 5 рабочих дней)"}}
}

// 6. 週1回の支払日に関する条件
func checkPaymentDay(c *contract, _ time.Time) []Finding {
	for _, line := range c.lines {
		lineLow := strings.ToLower(line)
		if !strings.Contains(lineLow, "платеж") || !strings.Contains(lineLow, "недел") {
			continue
		}
		if strings.Contains(lineLow, "1 раз в неделю") ||
			strings.Contains(lineLow, "один раз в неделю") ||
			strings.Contains(lineLow, "один платежный день") {
			return nil
		}
		return []Finding{{
			Description: "Условие об одном платежном дне в неделю изменено",
			Evidence:    strings.TrimSpace(line),
		}}
	}
	return []Finding{{Description: "В тексте отсутствует условие об одном платежном дне в неделю"}}
}

// 7. 異議議定書への言及（それ自体が非標準交渉の証拠）
func checkDisputeProtocol(c *contract, _ time.Time) []Finding {
	idx := strings.Index(c.lower, "протокол разноглас")
	if idx == -1 {
		return nil
	}
	start, end := sentenceBounds(c.raw, idx)
	return []Finding{{
		Description: "Обнаружено упоминание протокола разногласий (нестандартные изменения условий договора)",
		Evidence:    strings.TrimSpace(c.raw[start:end]),
	}}
}

// 8. 基本条件の無断変更（許容されるのは支払期限・検収期間・発注者責任・保証のみ）
func checkChanges(c *contract, _ time.Time) []Finding {
	indicators := []string{
		"изменение условий", "дополнительные условия", "особые условия",
		"отличающиеся от стандартных", "в отступление от",
	}
	allowed := []string{
		"срок оплат", "срок приемки", "ответственность заказчика",
		"гарантийн", "гарантий",
	}

	for _, indicator := range indicators {
		idx := strings.Index(c.lower, indicator)
		if idx == -1 {
			continue
		}
		start := strings.LastIndex(c.raw[:idx], ".") + 1
		end := indexFrom(c.raw, ".", idx)
		if end == -1 {
			end = floorRune(c.raw, idx+150)
		}

		changeText := c.lower[start:end]
		isAllowed := false
		for _, a := range allowed {
			if strings.Contains(changeText, a) {
				isAllowed = true
				break
			}
		}
		if !isAllowed {
			return []Finding{{
				Description: "Обнаружены недопустимые изменения базовых условий договора",
				Evidence:    strings.TrimSpace(c.raw[start:end]),
			}}
		}
	}
	return nil
}

// 9. 仕様書・付属書の必須要素
func checkSpecification(c *contract, _ time.Time) []Finding {
	if !c.containsAny("спецификация", "приложение", "техническое задание", "тз") {
		return nil
	}
	required := []string{"предмет", "цена", "срок", "стоимость"}
	var missing []string
	for _, elem := range required {
		if !strings.Contains(c.lower, elem) {
			missing = append(missing, elem)
		}
	}
	// 必須要素の過半が欠けている場合のみ違反
	if len(missing) > 2 {
		return []Finding{{
			Description: fmt.Sprintf("В спецификации/приложении отсутствуют обязательные элементы: %s", strings.Join(missing, ", ")),
			Evidence:    "Спецификация неполная",
		}}
	}
	return nil
}

// 10. 枠組契約の上限額・数量
func checkFramework(c *contract, _ time.Time) []Finding {
	if !c.containsAny("рамочный договор", "генеральное соглашение", "договор на неопределенный объем") {
		return nil
	}
	if !strings.Contains(c.lower, "лимит") && !strings.Contains(c.lower, "объем") {
		return []Finding{{
			Description: "В рамочном договоре не указаны лимиты или максимальные объемы",
			Evidence:    "Отсутствуют лимиты рамочного договора",
		}}
	}
	return nil
}
