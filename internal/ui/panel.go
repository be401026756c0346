package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/codyseavey/card-flip-checker/internal/models"
	"github.com/codyseavey/card-flip-checker/internal/services"
)

// LookupFunc runs one price check for a card name
type LookupFunc func(ctx context.Context, cardName string) services.LookupResult

// LedgerSession is the part of the daily ledger the panel drives
type LedgerSession interface {
	LoadTodayTotal(ctx context.Context) (float64, error)
	RecordProfit(ctx context.Context, amount float64) (float64, error)
}

const (
	fieldPagePrice = iota
	fieldFees
	fieldShipping
	fieldCount
)

var fieldLabels = [fieldCount]string{"Page Price:", "Estimated eBay Fees:", "Shipping Cost:"}

type lookupResultMsg struct {
	result services.LookupResult
}

type ledgerLoadedMsg struct {
	total float64
	err   error
}

type profitRecordedMsg struct {
	amount float64
	total  float64
	err    error
}

// Panel is the interactive price panel shown after a lookup. Inputs are
// recalculated on every edit; recording is enabled only once the ledger has
// loaded.
type Panel struct {
	ctx             context.Context
	lookup          LookupFunc
	ledger          LedgerSession
	logger          *zap.Logger
	keys            keyMap
	styles          panelStyles
	defaultShipping float64

	cardName string
	result   *services.LookupResult
	inFlight int

	inputs    [fieldCount]textinput.Model
	focus     int
	profit    models.ProfitResult
	hasProfit bool

	ledgerLoaded bool
	dailyProfit  float64
	status       string

	searching bool
	search    textinput.Model
}

// NewPanel creates a panel that looks up cardName on start
func NewPanel(ctx context.Context, cardName string, lookup LookupFunc, ledger LedgerSession, defaultShipping float64, logger *zap.Logger) *Panel {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Panel{
		ctx:             ctx,
		lookup:          lookup,
		ledger:          ledger,
		logger:          logger.Named("panel"),
		keys:            defaultKeyMap(),
		styles:          newPanelStyles(),
		defaultShipping: defaultShipping,
		cardName:        strings.TrimSpace(cardName),
	}

	for i := range p.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = "0"
		ti.CharLimit = 12
		ti.Width = 12
		p.inputs[i] = ti
	}

	p.search = textinput.New()
	p.search.Placeholder = "card name"
	p.search.Prompt = "Look up: "
	p.search.Width = 36

	return p
}

// Init loads the ledger and starts the first lookup
func (p *Panel) Init() tea.Cmd {
	cmds := []tea.Cmd{p.loadLedgerCmd()}
	if p.cardName != "" {
		cmds = append(cmds, p.startLookup(p.cardName))
	}
	return tea.Batch(cmds...)
}

func (p *Panel) loadLedgerCmd() tea.Cmd {
	return func() tea.Msg {
		total, err := p.ledger.LoadTodayTotal(p.ctx)
		return ledgerLoadedMsg{total: total, err: err}
	}
}

// startLookup issues a lookup without cancelling earlier ones; whichever
// result arrives last is what the panel shows.
func (p *Panel) startLookup(cardName string) tea.Cmd {
	p.cardName = cardName
	p.inFlight++
	lookup := p.lookup
	ctx := p.ctx
	return func() tea.Msg {
		return lookupResultMsg{result: lookup(ctx, cardName)}
	}
}

func (p *Panel) recordCmd(amount float64) tea.Cmd {
	return func() tea.Msg {
		total, err := p.ledger.RecordProfit(p.ctx, amount)
		return profitRecordedMsg{amount: amount, total: total, err: err}
	}
}

func (p *Panel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case lookupResultMsg:
		if p.inFlight > 0 {
			p.inFlight--
		}
		p.applyResult(msg.result)
		return p, nil

	case ledgerLoadedMsg:
		if msg.err != nil {
			p.logger.Error("Failed to load ledger", zap.Error(msg.err))
			p.status = "Could not load daily profit: " + msg.err.Error()
			return p, nil
		}
		p.ledgerLoaded = true
		p.dailyProfit = msg.total
		return p, nil

	case profitRecordedMsg:
		p.dailyProfit = msg.total
		if msg.err != nil {
			p.status = "Recorded locally, save failed: " + msg.err.Error()
		} else {
			p.status = fmt.Sprintf("Recorded $%.2f", msg.amount)
		}
		return p, nil

	case tea.KeyMsg:
		if p.searching {
			return p.updateSearch(msg)
		}
		return p.updateKeys(msg)
	}

	return p, nil
}

func (p *Panel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, p.keys.Submit):
		p.searching = false
		p.search.Blur()
		name := strings.TrimSpace(p.search.Value())
		p.search.SetValue("")
		if name == "" {
			return p, nil
		}
		return p, p.startLookup(name)
	case key.Matches(msg, p.keys.Cancel):
		p.searching = false
		p.search.Blur()
		p.search.SetValue("")
		return p, nil
	}

	var cmd tea.Cmd
	p.search, cmd = p.search.Update(msg)
	return p, cmd
}

func (p *Panel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, p.keys.Quit):
		return p, tea.Quit
	case key.Matches(msg, p.keys.Search):
		p.searching = true
		return p, p.search.Focus()
	case key.Matches(msg, p.keys.Next):
		return p, p.setFocus((p.focus + 1) % fieldCount)
	case key.Matches(msg, p.keys.Prev):
		return p, p.setFocus((p.focus + fieldCount - 1) % fieldCount)
	case key.Matches(msg, p.keys.Record):
		return p, p.recordPurchase()
	}

	if !p.hasInputs() {
		return p, nil
	}
	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	p.recalculate()
	return p, cmd
}

func (p *Panel) setFocus(i int) tea.Cmd {
	p.inputs[p.focus].Blur()
	p.focus = i
	return p.inputs[p.focus].Focus()
}

// hasInputs reports whether the editable fields are on screen
func (p *Panel) hasInputs() bool {
	return p.result != nil && p.result.OK()
}

func (p *Panel) applyResult(result services.LookupResult) {
	p.result = &result
	p.hasProfit = false
	if !result.OK() {
		return
	}

	stats := result.Stats
	fees := 0.0
	if stats.EstimatedFees != nil {
		fees = *stats.EstimatedFees
	}
	p.inputs[fieldPagePrice].SetValue(strconv.FormatFloat(stats.PagePrice, 'f', -1, 64))
	p.inputs[fieldFees].SetValue(strconv.FormatFloat(fees, 'f', 2, 64))
	p.inputs[fieldShipping].SetValue(strconv.FormatFloat(p.defaultShipping, 'f', 2, 64))
	for i := range p.inputs {
		p.inputs[i].Blur()
	}
	p.focus = fieldPagePrice
	p.inputs[fieldPagePrice].Focus()
	p.recalculate()
}

// referencePrice is the eBay median, or empty when unknown
func (p *Panel) referencePrice() string {
	if p.result == nil || p.result.Stats == nil || p.result.Stats.MedianPrice == nil {
		return ""
	}
	return strconv.FormatFloat(*p.result.Stats.MedianPrice, 'f', -1, 64)
}

// recalculate refreshes profit and ROI from the current field text
func (p *Panel) recalculate() {
	if !p.hasInputs() {
		p.logger.Warn("Panel inputs not available, skipping recalculation")
		return
	}
	inputs := services.ParseProfitInputs(
		p.inputs[fieldPagePrice].Value(),
		p.referencePrice(),
		p.inputs[fieldFees].Value(),
		p.inputs[fieldShipping].Value(),
	)
	p.profit = services.Recalculate(inputs)
	p.hasProfit = true
}

func (p *Panel) recordPurchase() tea.Cmd {
	if !p.hasProfit {
		return nil
	}
	if !p.ledgerLoaded {
		p.status = "Daily profit is still loading"
		return nil
	}
	// Record the amount as displayed
	amount, _ := p.profit.Profit.Round(2).Float64()
	return p.recordCmd(amount)
}

// Profit returns the current calculation; ok is false when nothing is shown
func (p *Panel) Profit() (models.ProfitResult, bool) {
	return p.profit, p.hasProfit
}

// DailyProfit returns the running total shown in the panel
func (p *Panel) DailyProfit() float64 {
	return p.dailyProfit
}

func (p *Panel) View() string {
	s := p.styles
	var b strings.Builder

	switch {
	case p.result == nil && p.inFlight > 0:
		b.WriteString(s.Status.Render(fmt.Sprintf("Looking up %s…", p.cardName)))
	case p.result == nil:
		b.WriteString(s.Status.Render("Press / to look up a card"))
	case !p.result.OK():
		b.WriteString(p.errorView())
	default:
		b.WriteString(p.statsView())
	}

	if p.inFlight > 0 && p.result != nil {
		b.WriteString("\n" + s.Status.Render("Updating…"))
	}
	if p.searching {
		b.WriteString("\n\n" + p.search.View())
	}
	if p.status != "" {
		b.WriteString("\n" + s.Status.Render(p.status))
	}
	b.WriteString("\n" + s.Help.Render(p.keys.helpLine()))

	return s.Container.Render(b.String()) + "\n"
}

func (p *Panel) errorView() string {
	s := p.styles
	failure := p.result.Failure
	if failure == nil {
		failure = &services.LookupFailure{Message: "Unknown error", Details: "No details available"}
	}
	return s.Error.Render("Error: "+failure.Message) + "\n" + s.Value.Render(failure.Details)
}

func (p *Panel) statsView() string {
	s := p.styles
	stats := p.result.Stats

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(label), s.Value.Render(value))
	}
	inputRow := func(field int) string {
		style := s.Input
		if field == p.focus {
			style = s.FocusedInput
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(fieldLabels[field]), style.Render("$"+p.inputs[field].View()))
	}

	name := stats.CardName
	if name == "" {
		name = "Unknown Card"
	}

	listings := "N/A"
	if stats.NumListings != nil {
		listings = strconv.Itoa(*stats.NumListings)
	}
	velocity := "N/A"
	if stats.SalesVelocity != nil {
		velocity = fmt.Sprintf("%.2f", *stats.SalesVelocity)
	}

	profitText := "$" + p.profit.Profit.StringFixed(2)
	profitStyle := s.Positive
	if !p.profit.Profit.IsPositive() {
		profitStyle = s.Negative
	}

	lines := []string{
		s.Title.Render(name),
		inputRow(fieldPagePrice),
		row("eBay Median:", services.FormatPrice(stats.MedianPrice)),
		row("eBay Average:", services.FormatPrice(stats.AveragePrice)),
		row("eBay Range:", services.FormatPrice(stats.LowestPrice)+" - "+services.FormatPrice(stats.HighestPrice)),
		inputRow(fieldFees),
		inputRow(fieldShipping),
		lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render("Potential Profit:"), profitStyle.Render(profitText)),
		row("ROI:", p.profit.ROI.String()),
		row("Number of Listings:", listings),
		row("Estimated Sales/Day:", velocity),
		row("Market Saturation:", string(stats.Saturation())),
		"",
	}
	if p.ledgerLoaded {
		lines = append(lines, row("Daily Profit:", fmt.Sprintf("$%.2f", p.dailyProfit)))
	} else {
		lines = append(lines, row("Daily Profit:", "loading…"))
	}
	return strings.Join(lines, "\n")
}
