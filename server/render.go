package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/NJonasFigge/fadable-calendar/layout"
	"github.com/NJonasFigge/fadable-calendar/period"
	"github.com/NJonasFigge/fadable-calendar/widget"
)

// renderPeriod assembles the HTML fragment for one period: a header with
// labels and the widget strip, then one day container per window day with
// row-positioned events.
func renderPeriod(p *period.Period, results []widget.Result, now time.Time) (string, error) {
	doc := etree.NewDocument()

	header := doc.CreateElement("div")
	header.CreateAttr("class", "week-header")
	header.AddChild(labelsElement(p))
	header.AddChild(widgetsElement(results))

	body := doc.CreateElement("div")
	body.CreateAttr("class", "week-body")
	for _, day := range p.Days() {
		body.AddChild(dayElement(p, day, now))
	}

	return doc.WriteToString()
}

func labelsElement(p *period.Period) *etree.Element {
	isoYear, isoWeek := p.StartDate().ISOWeek()

	labels := etree.NewElement("div")
	labels.CreateAttr("class", "week-header-labels")

	year := labels.CreateElement("span")
	year.CreateAttr("class", "week-label week-label-year")
	year.CreateText(strconv.Itoa(isoYear))

	month := labels.CreateElement("span")
	month.CreateAttr("class", "week-label week-label-month")
	month.CreateText(p.StartDate().Month().String())

	sep := labels.CreateElement("span")
	sep.CreateAttr("class", "week-label week-label-separator")
	sep.CreateText("–")

	week := labels.CreateElement("span")
	week.CreateAttr("class", "week-label week-label-weeknum")
	week.CreateText(fmt.Sprintf("Week %02d", isoWeek))

	return labels
}

func widgetsElement(results []widget.Result) *etree.Element {
	widgets := etree.NewElement("div")
	widgets.CreateAttr("class", "week-header-widgets")

	for _, res := range results {
		el := widgets.CreateElement("div")
		el.CreateAttr("class", fmt.Sprintf("widget widget-%s widget-%s", res.Widget, res.Classification))
		el.CreateAttr("data-value", formatValue(res.Value))
		if len(res.Highlights) > 0 {
			el.CreateAttr("data-highlight", strings.Join(res.Highlights, " "))
		}

		value := el.CreateElement("span")
		value.CreateAttr("class", "widget-value")
		value.CreateText(formatValue(res.Value))
	}

	return widgets
}

func dayElement(p *period.Period, day time.Time, now time.Time) *etree.Element {
	el := etree.NewElement("div")
	el.CreateAttr("id", "day-"+day.Format("2006-01-02"))
	el.CreateAttr("class", dayClass(day, now)+" day-container")

	header := el.CreateElement("div")
	header.CreateAttr("class", "day-header")

	date := header.CreateElement("span")
	date.CreateAttr("class", "day-header-date")
	date.CreateText(day.Format("02"))

	name := header.CreateElement("span")
	name.CreateAttr("class", "day-header-dayname")
	name.CreateText(day.Format("Mon"))

	occs := p.OccurrencesOn(day)
	rows, totalRows := layout.AssignRows(occs)

	strip := el.CreateElement("div")
	strip.CreateAttr("class", "day-strip")
	strip.CreateAttr("data-rows", strconv.Itoa(totalRows))

	for i, occ := range occs {
		ev := strip.CreateElement("div")
		ev.CreateAttr("class", eventClass(occ))
		ev.CreateAttr("data-row", strconv.Itoa(rows[i]))
		ev.CreateAttr("data-start", strconv.Itoa(occ.StartMinutes))
		ev.CreateAttr("data-end", strconv.Itoa(occ.EndMinutes))
		if occ.Color != "" {
			ev.CreateAttr("data-color", occ.Color)
		}
		ev.CreateText(occ.Event.Title)
	}

	return el
}

func dayClass(day, now time.Time) string {
	dy, dm, dd := day.Date()
	ny, nm, nd := now.Date()
	switch {
	case dy == ny && dm == nm && dd == nd:
		return "day-today"
	case day.Before(now):
		return "day-passed"
	default:
		return "day-future"
	}
}

func eventClass(occ period.Occurrence) string {
	classes := []string{"event"}
	if occ.Event.HasCategory("holiday") {
		classes = append(classes, "event-holiday")
	}
	if occ.Event.AllDay {
		classes = append(classes, "event-all-day")
	}
	return strings.Join(classes, " ")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
