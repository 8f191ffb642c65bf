package web

import (
	"errors"
	"net/http"
	"net/url"
	"slices"

	"dq/internal/adapters/http/middleware"
	"dq/internal/application/orchestrators"
	"dq/internal/domain/donation"
	"dq/internal/domain/donationcategory"
)

type donatePage struct {
	Category donationcategory.DonationCategory
	Tiered   bool
	Tab      donation.Tab
	Tabs     []donation.Tab
	Presets  []float64
	Form     donation.Form
	Errors   donation.ValidationErrors
	Message  string
}

type donateResult struct {
	URL string `json:"url"`
}

// loadCategory fetches the category for the {slug} path value. It answers the
// caller itself and returns false when there is nothing to show.
func (a *app) loadCategory(w http.ResponseWriter, r *http.Request) (donationcategory.DonationCategory, bool) {
	env, err := a.Services.DonationCategories.GetBySlug(r.Context(), r.PathValue("slug"))
	if err == nil && env.Data == nil {
		err = orchestrators.ErrNotFound
	}
	if err != nil {
		status, msg := errorStatus(err)
		if isJSONRequest(r) {
			writeFailure(w, status, msg)
		} else {
			renderError(w, r, status, msg)
		}
		return donationcategory.DonationCategory{}, false
	}
	return *env.Data, true
}

func newDonatePage(c donationcategory.DonationCategory, f donation.Form) donatePage {
	p := donatePage{
		Category: c,
		Tiered:   c.Presets.IsTiered(),
		Tab:      f.Selector.Tab,
		Presets:  c.Presets.ForTab(string(f.Selector.Tab)),
		Form:     f,
		Errors:   f.Errors(),
	}
	if p.Tiered {
		p.Tabs = []donation.Tab{donation.TabDaily, donation.TabMonthly}
	}
	return p
}

// handleDonatePage renders the checkout for one category. ?tab= picks the tier;
// anything unknown falls back to daily.
func (a *app) handleDonatePage(w http.ResponseWriter, r *http.Request) {
	c, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	tab, err := donation.ParseTab(r.URL.Query().Get("tab"))
	if err != nil {
		tab = donation.TabDaily
	}
	f := donation.Form{
		Purpose:      c.Slug,
		PurposeLabel: c.Title,
		Method:       donation.PaymentMethodOnline,
		Selector:     donation.NewAmountSelector(tab, c.Presets.ForTab(string(tab))),
	}
	renderTemplate(w, r, http.StatusOK, "donate.html", newDonatePage(c, f))
}

// handleDonateSubmit validates the donation, stages it for the callback page and
// sends the donor to the gateway.
func (a *app) handleDonateSubmit(w http.ResponseWriter, r *http.Request) {
	c, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	f, err := readFields(w, r)
	if err != nil {
		a.donateFailed(w, r, c, nil, err)
		return
	}
	form, err := donationForm(c, f)
	if err != nil {
		a.donateFailed(w, r, c, nil, err)
		return
	}

	res, err := orchestrators.ExecuteSubmitDonation(r.Context(), orchestrators.SubmitDonationInput{
		Form:      form,
		SessionID: middleware.SessionIDFromContext(r.Context()),
	}, orchestrators.SubmitDonationDeps{
		Pending:   a.Pending,
		Donations: a.Services.Donations,
	})
	if err != nil {
		a.donateFailed(w, r, c, form, err)
		return
	}

	if isJSONRequest(r) {
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: donateResult{URL: res.RedirectURL}})
		return
	}
	http.Redirect(w, r, res.RedirectURL, http.StatusSeeOther)
}

// donationForm builds the submitted form state. A preset must be one the
// category offers on the chosen tab.
func donationForm(c donationcategory.DonationCategory, f *requestFields) (*donation.Form, error) {
	tab, err := donation.ParseTab(f.str("tab"))
	if err != nil {
		return nil, err
	}
	presets := c.Presets.ForTab(string(tab))
	sel := donation.AmountSelector{Tab: tab}
	preset, err := f.optionalFloat("selectedPreset")
	if err != nil {
		return nil, err
	}
	switch {
	case preset != nil:
		if !slices.Contains(presets, *preset) {
			return nil, badInput("selectedPreset is not offered for this category")
		}
		sel.SelectPreset(*preset)
	default:
		sel.SetCustomAmount(f.str("customAmount"))
	}

	method := f.str("method")
	if method == "" {
		method = donation.PaymentMethodOnline
	}
	return &donation.Form{
		Purpose:      c.Slug,
		PurposeLabel: c.Title,
		Name:         f.str("name"),
		Contact:      f.str("contact"),
		Behalf:       f.str("behalf"),
		Method:       method,
		Selector:     sel,
	}, nil
}

// donateFailed answers a rejected or failed donation. Backend failures send
// browsers to the failure page; invalid input re-renders the form.
func (a *app) donateFailed(w http.ResponseWriter, r *http.Request, c donationcategory.DonationCategory, form *donation.Form, err error) {
	failed := errors.Is(err, orchestrators.ErrDonationFailed)
	if isJSONRequest(r) {
		if failed {
			writeFailure(w, http.StatusBadGateway, orchestrators.ErrDonationFailed.Error())
			return
		}
		writeAPIError(w, err)
		return
	}
	if failed {
		http.Redirect(w, r, "/payment/member-failed?reason="+url.QueryEscape(orchestrators.ErrDonationFailed.Error()), http.StatusSeeOther)
		return
	}

	if form == nil {
		form = &donation.Form{Purpose: c.Slug, PurposeLabel: c.Title, Method: donation.PaymentMethodOnline}
		form.Selector = donation.NewAmountSelector(donation.TabDaily, c.Presets.ForTab(string(donation.TabDaily)))
	}
	page := newDonatePage(c, *form)
	status, msg := http.StatusBadRequest, ""
	var verrs donation.ValidationErrors
	if !errors.As(err, &verrs) {
		status, msg = errorStatus(err)
	}
	page.Message = msg
	renderTemplate(w, r, status, "donate.html", page)
}
