package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"dq/internal/domain/content"
	"dq/internal/domain/donation"
	"dq/internal/domain/donationcategory"
	"dq/internal/domain/heroimage"
	"dq/internal/domain/memberapplication"
	"dq/internal/domain/notice"
	"dq/internal/domain/program"
	"dq/internal/domain/user"
)

// Backend paths.
const (
	PathPrograms           = "/programs"
	PathActivities         = "/activities"
	PathDonationCategories = "/donation-categories"
	PathHeroImages         = "/hero-images"
	PathNotices            = "/notices"
	PathUsers              = "/users"
	PathDonations          = "/donations"
	PathMemberApplications = "/member-applications"
	PathBlogs              = "/blogs"
	PathGallery            = "/gallery"
	PathSubmitAfterPayment = PathMemberApplications + "/submit-after-payment"
)

// ErrMissingGatewayURL is returned when /donations succeeds without data.url.
var ErrMissingGatewayURL = errors.New("donation response did not include a gateway url")

// Services holds one Resource per backend entity.
type Services struct {
	Programs           *Resource[program.Program]
	Activities         *Resource[program.Program]
	DonationCategories *Resource[donationcategory.DonationCategory]
	HeroImages         *Resource[heroimage.HeroImage]
	Notices            *Resource[notice.Notice]
	Users              *Resource[user.User]
	MemberApplications *Resource[memberapplication.MemberApplication]
	Blogs              *Resource[content.Blog]
	Gallery            *Resource[content.GalleryItem]
	Donations          *DonationService
}

// publicRoute is the one anonymous list route for a collection, e.g. /public/programs.
func publicRoute(path string) string {
	return "/public" + path
}

// NewServices wires every resource to c. Collections readable by the public
// site fall back to their public route; admin-only ones do not.
func NewServices(c *Client) *Services {
	return &Services{
		Programs:           NewResource[program.Program](c, PathPrograms, publicRoute(PathPrograms)),
		Activities:         NewResource[program.Program](c, PathActivities, publicRoute(PathActivities)),
		DonationCategories: NewResource[donationcategory.DonationCategory](c, PathDonationCategories, publicRoute(PathDonationCategories)),
		HeroImages:         NewResource[heroimage.HeroImage](c, PathHeroImages, publicRoute(PathHeroImages)),
		Notices:            NewResource[notice.Notice](c, PathNotices, publicRoute(PathNotices)),
		Users:              NewResource[user.User](c, PathUsers),
		MemberApplications: NewResource[memberapplication.MemberApplication](c, PathMemberApplications),
		Blogs:              NewResource[content.Blog](c, PathBlogs, publicRoute(PathBlogs)),
		Gallery:            NewResource[content.GalleryItem](c, PathGallery, publicRoute(PathGallery)),
		Donations:          &DonationService{client: c},
	}
}

// DonationService talks to the donation and payment-finalisation endpoints.
type DonationService struct {
	client *Client
}

type donationRequest struct {
	donation.CachePayload
	PaymentMethod string `json:"paymentMethod"`
}

type gatewayData struct {
	URL string `json:"url"`
}

// Create records the donation and returns the gateway URL to redirect to.
// PRE: p passed donation.Form validation
// POST: Returns a non-empty URL or an error
func (d *DonationService) Create(ctx context.Context, p donation.CachePayload) (string, error) {
	resp, err := d.client.Do(ctx, http.MethodPost, PathDonations, nil, donationRequest{
		CachePayload:  p,
		PaymentMethod: donation.PaymentMethodOnline,
	})
	if err != nil {
		return "", err
	}
	data, _, err := DecodeItem[gatewayData](resp.Body)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", PathDonations, err)
	}
	if data == nil || data.URL == "" {
		return "", ErrMissingGatewayURL
	}
	return data.URL, nil
}

// SubmitAfterPayment forwards the gateway's callback fields to the backend so it
// can finalise the donation or membership record.
func (d *DonationService) SubmitAfterPayment(ctx context.Context, fields map[string]string) (Result, error) {
	resp, err := d.client.Do(ctx, http.MethodPost, PathSubmitAfterPayment, nil, fields)
	if err != nil {
		return Result{}, err
	}
	success, message, err := DecodeMessage(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("POST %s: %w", PathSubmitAfterPayment, err)
	}
	return Result{Success: success, Message: message}, nil
}
