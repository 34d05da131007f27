package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/nekogravitycat/event-planner/internal/apiclient"
	"github.com/nekogravitycat/event-planner/internal/model"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	name := fs.String("name", "", "account name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := parse(fs, args); err != nil {
		return err
	}

	identifier := strings.TrimSpace(*name)
	if identifier == "" {
		identifier = strings.TrimSpace(*email)
	}
	if identifier == "" || *password == "" {
		return apperror.Validation("name", "Name (or email) and password are required.")
	}

	resp, err := c.client.Login(ctx, identifier, *password)
	if err != nil {
		return err
	}
	if err := c.store.SetSession(resp.Token, resp.Name); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	c.sink.Success(fmt.Sprintf("Logged in as %s.", resp.Name))
	return nil
}

func (c *cli) logout(ctx context.Context, args []string) error {
	if err := parse(c.flags("logout"), args); err != nil {
		return err
	}
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.sink.Success("Logged out.")
	return nil
}

func (c *cli) signup(ctx context.Context, args []string) error {
	fs := c.flags("signup")
	name := fs.String("name", "", "account name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	imagePath := fs.String("image", "", "profile image file")
	if err := parse(fs, args); err != nil {
		return err
	}

	user := model.SignupUser{
		Name:     strings.TrimSpace(*name),
		Email:    strings.TrimSpace(*email),
		Password: *password,
	}
	if user.Name == "" || user.Email == "" || user.Password == "" {
		return apperror.Validation("name", "Name, email and password are required.")
	}

	var image *apiclient.FilePart
	if *imagePath != "" {
		part, err := apiclient.LoadFile(*imagePath)
		if err != nil {
			return err
		}
		image = &part
	}

	if err := c.client.Signup(ctx, user, image); err != nil {
		return err
	}
	c.sink.Success("Account created. You can now log in.")
	return nil
}

func (c *cli) profile(ctx context.Context, args []string) error {
	if err := parse(c.flags("profile"), args); err != nil {
		return err
	}
	p, err := c.client.Profile(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s <%s> (#%d)\n", p.Name, p.Email, p.ID)
	fmt.Fprintf(c.out, "\nVenues (%d)\n", len(p.Venues))
	c.printVenues(p.Venues)
	fmt.Fprintf(c.out, "\nBookings (%d)\n", len(p.Bookings))
	c.printBookings(p.Bookings)
	return nil
}

func (c *cli) venues(ctx context.Context, args []string) error {
	fs := c.flags("venues")
	userID := fs.Int64("user", 0, "only venues owned by this user id")
	mine := fs.Bool("mine", false, "only venues owned by the logged-in user")
	if err := parse(fs, args); err != nil {
		return err
	}

	fetch := c.client.ListVenues
	switch {
	case *mine:
		id, err := c.client.CurrentUserID()
		if err != nil {
			return err
		}
		fetch = func(ctx context.Context) ([]model.Venue, error) { return c.client.ListVenuesByUser(ctx, id) }
	case *userID > 0:
		id := *userID
		fetch = func(ctx context.Context) ([]model.Venue, error) { return c.client.ListVenuesByUser(ctx, id) }
	}

	items, err := fetchList(ctx, c, "venues", fetch)
	if err != nil {
		return err
	}
	c.printVenues(items)
	return nil
}

func (c *cli) vendors(ctx context.Context, args []string) error {
	if err := parse(c.flags("vendors"), args); err != nil {
		return err
	}
	items, err := fetchList(ctx, c, "vendors", c.client.ListVendors)
	if err != nil {
		return err
	}

	tw := c.table("ID", "NAME", "CONTACT", "SPECIALTIES", "PRICE", "IMAGES")
	for _, v := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", v.ID, v.Name, v.Contact, strings.Join(v.Specialties, ", "), formatOptionalPrice(v.Price), len(v.Images))
	}
	return tw.Flush()
}

func (c *cli) carters(ctx context.Context, args []string) error {
	if err := parse(c.flags("carters"), args); err != nil {
		return err
	}
	items, err := fetchList(ctx, c, "carters", c.client.ListCarters)
	if err != nil {
		return err
	}

	tw := c.table("ID", "NAME", "CONTACT", "SPECIALTIES", "PRICE", "IMAGES")
	for _, v := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", v.ID, v.Name, v.Contact, strings.Join(v.Specialties, ", "), formatOptionalPrice(v.Price), len(v.Images))
	}
	return tw.Flush()
}

func (c *cli) services(ctx context.Context, args []string) error {
	if err := parse(c.flags("services"), args); err != nil {
		return err
	}
	items, err := fetchList(ctx, c, "services", c.client.ListServices)
	if err != nil {
		return err
	}
	c.printServices(items)
	return nil
}

func (c *cli) venueServices(ctx context.Context, args []string) error {
	fs := c.flags("venue-services")
	venueID := fs.Int64("venue", 0, "venue id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *venueID <= 0 {
		return apperror.Validation("venue", "A venue id is required.")
	}

	id := *venueID
	items, err := fetchList(ctx, c, "services", func(ctx context.Context) ([]model.Service, error) {
		return c.client.ListVenueServices(ctx, id)
	})
	if err != nil {
		return err
	}
	c.printServices(items)
	return nil
}

func (c *cli) addVenue(ctx context.Context, args []string) error {
	fs := c.flags("add-venue")
	name := fs.String("name", "", "venue name")
	address := fs.String("address", "", "venue address")
	price := fs.Float64("price", 0, "venue price")
	var images stringList
	fs.Var(&images, "image", "image file (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}

	in := model.VenueInput{Name: strings.TrimSpace(*name), Address: strings.TrimSpace(*address), Price: *price}
	if in.Name == "" {
		return apperror.Validation("name", "Venue name is required.")
	}
	if in.Price < 0 {
		return apperror.Validation("price", "Price cannot be negative.")
	}
	parts, err := loadFiles(images)
	if err != nil {
		return err
	}

	v, err := c.client.CreateVenue(ctx, in, parts)
	if err != nil {
		return err
	}
	c.sink.Success(createdMessage("Venue", in.Name, v.ID))
	return nil
}

// providerFlags are shared by add-vendor and add-carter.
type providerFlags struct {
	name        *string
	contact     *string
	specialties *string
	description *string
	price       optionalPrice
	images      stringList
}

func (c *cli) parseProvider(cmd string, args []string) (*providerFlags, []apiclient.FilePart, error) {
	fs := c.flags(cmd)
	p := &providerFlags{
		name:        fs.String("name", "", "display name"),
		contact:     fs.String("contact", "", "contact details"),
		specialties: fs.String("specialties", "", "comma separated specialties"),
		description: fs.String("description", "", "description"),
	}
	fs.Var(&p.price, "price", "price (omit for none)")
	fs.Var(&p.images, "image", "image file (repeatable)")
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}

	*p.name = strings.TrimSpace(*p.name)
	if *p.name == "" {
		return nil, nil, apperror.Validation("name", "Name is required.")
	}
	if p.price.value != nil && *p.price.value < 0 {
		return nil, nil, apperror.Validation("price", "Price cannot be negative.")
	}
	parts, err := loadFiles(p.images)
	if err != nil {
		return nil, nil, err
	}
	return p, parts, nil
}

func (c *cli) addVendor(ctx context.Context, args []string) error {
	p, parts, err := c.parseProvider("add-vendor", args)
	if err != nil {
		return err
	}
	in := model.VendorInput{
		Name:        *p.name,
		Contact:     strings.TrimSpace(*p.contact),
		Specialties: model.ParseSpecialties(*p.specialties),
		Description: strings.TrimSpace(*p.description),
		Price:       p.price.value,
	}

	v, err := c.client.CreateVendor(ctx, in, parts)
	if err != nil {
		return err
	}
	c.sink.Success(createdMessage("Vendor", in.Name, v.ID))
	return nil
}

func (c *cli) addCarter(ctx context.Context, args []string) error {
	p, parts, err := c.parseProvider("add-carter", args)
	if err != nil {
		return err
	}
	in := model.CarterInput{
		Name:        *p.name,
		Contact:     strings.TrimSpace(*p.contact),
		Specialties: model.ParseSpecialties(*p.specialties),
		Description: strings.TrimSpace(*p.description),
		Price:       p.price.value,
	}

	v, err := c.client.CreateCarter(ctx, in, parts)
	if err != nil {
		return err
	}
	c.sink.Success(createdMessage("Carter", in.Name, v.ID))
	return nil
}

func (c *cli) attachServices(ctx context.Context, args []string) error {
	fs := c.flags("attach-services")
	venueID := fs.Int64("venue", 0, "venue id")
	var serviceIDs idList
	fs.Var(&serviceIDs, "service", "service id (repeatable or comma separated)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *venueID <= 0 {
		return apperror.Validation("venue", "A venue id is required.")
	}
	if len(serviceIDs) == 0 {
		return apperror.Validation("service", "At least one service id is required.")
	}

	if err := c.client.AttachVenueServices(ctx, *venueID, serviceIDs); err != nil {
		return err
	}
	c.sink.Success(fmt.Sprintf("Attached %d service(s) to venue #%d.", len(serviceIDs), *venueID))
	return nil
}

func (c *cli) detachService(ctx context.Context, args []string) error {
	fs := c.flags("detach-service")
	venueID := fs.Int64("venue", 0, "venue id")
	serviceID := fs.Int64("service", 0, "service id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *venueID <= 0 || *serviceID <= 0 {
		return apperror.Validation("venue", "Venue and service ids are required.")
	}

	if err := c.client.DetachVenueService(ctx, *venueID, *serviceID); err != nil {
		return err
	}
	c.sink.Success(fmt.Sprintf("Detached service #%d from venue #%d.", *serviceID, *venueID))
	return nil
}

func (c *cli) cancel(ctx context.Context, args []string) error {
	fs := c.flags("cancel")
	bookingID := fs.Int64("booking", 0, "booking id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *bookingID <= 0 {
		return apperror.Validation("booking", "A booking id is required.")
	}

	if err := c.client.CancelBooking(ctx, *bookingID); err != nil {
		return err
	}
	c.sink.Success(fmt.Sprintf("Booking #%d cancelled.", *bookingID))
	return nil
}

func loadFiles(paths []string) ([]apiclient.FilePart, error) {
	parts := make([]apiclient.FilePart, 0, len(paths))
	for _, path := range paths {
		part, err := apiclient.LoadFile(path)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func createdMessage(kind, name string, id int64) string {
	if id > 0 {
		return fmt.Sprintf("%s %q created (#%d).", kind, name, id)
	}
	return fmt.Sprintf("%s %q created.", kind, name)
}

func (c *cli) table(headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func (c *cli) printVenues(venues []model.Venue) {
	tw := c.table("ID", "NAME", "ADDRESS", "PRICE", "SERVICES", "IMAGES")
	for _, v := range venues {
		names := make([]string, len(v.Services))
		for i, s := range v.Services {
			names[i] = s.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", v.ID, v.Name, v.Address, formatPrice(v.Price), strings.Join(names, ", "), len(v.Images))
	}
	tw.Flush()
}

func (c *cli) printServices(services []model.Service) {
	tw := c.table("ID", "NAME", "PRICE", "DESCRIPTION")
	for _, s := range services {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.Name, formatPrice(s.Price), s.Description)
	}
	tw.Flush()
}

func (c *cli) printBookings(bookings []model.Booking) {
	tw := c.table("ID", "DATE", "VENUE", "CARTERS", "VENDORS", "TOTAL", "STATUS")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n", b.ID, b.BookingDate, b.Venue.Name, len(b.Carters), len(b.Vendors), formatPrice(b.TotalPrice), b.Status)
	}
	tw.Flush()
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func formatOptionalPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return formatPrice(*p)
}
