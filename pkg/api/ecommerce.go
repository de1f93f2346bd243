package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListBundles returns the catalog of purchasable bundles.
func (client *Client) ListBundles(ctx context.Context) ([]Bundle, error) {
	var bundles []Bundle
	if err := client.do(ctx, http.MethodGet, "/api/ecommerce/bundles/", nil, &bundles); err != nil {
		return nil, err
	}
	return bundles, nil
}

// GetBundle returns a single bundle by id.
func (client *Client) GetBundle(ctx context.Context, bundleID int64) (Bundle, error) {
	var bundle Bundle
	path := "/api/ecommerce/bundles/" + strconv.FormatInt(bundleID, 10) + "/"
	if err := client.do(ctx, http.MethodGet, path, nil, &bundle); err != nil {
		return Bundle{}, err
	}
	return bundle, nil
}

// BundleSubjects returns bundle metadata with its subject list and course counts.
func (client *Client) BundleSubjects(ctx context.Context, bundleID int64) (BundleSubjects, error) {
	var result BundleSubjects
	path := "/api/ecommerce/bundles/" + strconv.FormatInt(bundleID, 10) + "/subjects/"
	if err := client.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return BundleSubjects{}, err
	}
	return result, nil
}

// ListPurchases returns one page of the learner's purchases. Page numbering
// starts at 1; zero requests the first page.
func (client *Client) ListPurchases(ctx context.Context, page int) (PaginatedList[Purchase], error) {
	path := "/api/ecommerce/purchases/"
	if page > 1 {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		path += "?" + query.Encode()
	}
	var purchases PaginatedList[Purchase]
	if err := client.do(ctx, http.MethodGet, path, nil, &purchases); err != nil {
		return PaginatedList[Purchase]{}, err
	}
	return purchases, nil
}

// ListCourses returns the courses of a subject.
func (client *Client) ListCourses(ctx context.Context, subjectID int64) ([]Course, error) {
	query := url.Values{}
	query.Set("subject", strconv.FormatInt(subjectID, 10))
	var courses []Course
	if err := client.do(ctx, http.MethodGet, "/api/courses/?"+query.Encode(), nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetCourse returns a single course by id.
func (client *Client) GetCourse(ctx context.Context, courseID int64) (Course, error) {
	var course Course
	path := "/api/courses/" + strconv.FormatInt(courseID, 10) + "/"
	if err := client.do(ctx, http.MethodGet, path, nil, &course); err != nil {
		return Course{}, err
	}
	return course, nil
}
