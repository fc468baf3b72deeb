package handlers

import (
	"net/http"

	"github.com/claryon/claryon-site/libs/httpx"
)

// Routes groups the handlers mounted by site-service.
type Routes struct {
	Public       *PublicHandler
	Booking      *BookingHandler
	Contact      *ContactHandler
	Login        *LoginHandler
	Posts        *AdminPostsHandler
	Testimonials *AdminTestimonialsHandler
	Records      *AdminRecordsHandler

	// FormLimit guards the public write endpoints; Admin guards /admin.
	FormLimit httpx.Middleware
	Admin     httpx.Middleware
}

func (rt Routes) Register(mux *http.ServeMux) {
	form := func(h http.HandlerFunc) http.Handler {
		if rt.FormLimit == nil {
			return h
		}
		return rt.FormLimit(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return rt.Admin(h)
	}

	mux.HandleFunc("GET /api/v1/public/posts", rt.Public.Posts)
	mux.HandleFunc("GET /api/v1/public/posts/{slug}", rt.Public.Post)
	mux.HandleFunc("GET /api/v1/public/testimonials", rt.Public.Testimonials)
	mux.HandleFunc("GET /api/v1/public/services", rt.Public.Services)
	mux.Handle("POST /api/v1/public/appointments", form(rt.Booking.Create))
	mux.Handle("POST /api/v1/public/contact", form(rt.Contact.Create))

	mux.Handle("POST /api/v1/admin/login", form(rt.Login.Login))
	mux.Handle("GET /api/v1/admin/me", admin(Me))

	mux.Handle("GET /api/v1/admin/posts", admin(rt.Posts.List))
	mux.Handle("POST /api/v1/admin/posts", admin(rt.Posts.Create))
	mux.Handle("GET /api/v1/admin/posts/{id}", admin(rt.Posts.Get))
	mux.Handle("PUT /api/v1/admin/posts/{id}", admin(rt.Posts.Update))
	mux.Handle("DELETE /api/v1/admin/posts/{id}", admin(rt.Posts.Delete))

	mux.Handle("GET /api/v1/admin/testimonials", admin(rt.Testimonials.List))
	mux.Handle("POST /api/v1/admin/testimonials", admin(rt.Testimonials.Create))
	mux.Handle("GET /api/v1/admin/testimonials/{id}", admin(rt.Testimonials.Get))
	mux.Handle("PUT /api/v1/admin/testimonials/{id}", admin(rt.Testimonials.Update))
	mux.Handle("DELETE /api/v1/admin/testimonials/{id}", admin(rt.Testimonials.Delete))

	mux.Handle("GET /api/v1/admin/appointments", admin(rt.Records.Appointments))
	mux.Handle("GET /api/v1/admin/appointments/feed.ics", admin(rt.Records.AppointmentsFeed))
	mux.Handle("GET /api/v1/admin/contact-submissions", admin(rt.Records.ContactSubmissions))
}
