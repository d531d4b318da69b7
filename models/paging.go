package models

import (
	"net/url"
	"strconv"

	"golang.org/x/xerrors"
)

type valueSetter interface {
	Set(key string, value string)
}

// Paging parameters for request.
type PagingReq struct {
	// How far to offset the page.
	Offset int
	// Maximum item count to return.
	Limit int
}

// Dumps paging information to request URL params.
func (pagingReq *PagingReq) ToParams(params valueSetter) {
	params.Set("paging-offset", strconv.Itoa(pagingReq.Offset))
	// Only send back limit if it is valid.
	if pagingReq.Limit > 0 {
		params.Set("paging-limit", strconv.Itoa(pagingReq.Limit))
	}
}

// Window returns the [start, end) slice bounds of the page within totalItems items.
// A limit of 0 or less means no limit.
func (pagingReq *PagingReq) Window(totalItems int) (start int, end int) {
	start = pagingReq.Offset
	if start > totalItems {
		start = totalItems
	}
	end = totalItems
	if pagingReq.Limit > 0 && start+pagingReq.Limit < totalItems {
		end = start + pagingReq.Limit
	}
	return start, end
}

// Paging information for a response.
type PagingResp struct {
	*PagingReq
	TotalItems  int
	TotalPages  int
	CurrentPage int
	Next        string
	Previous    string
}

func (pagingResp *PagingResp) ToHeaders(headers valueSetter) {
	pagingResp.PagingReq.ToParams(headers)
	// Only send back valid fields.
	if pagingResp.TotalItems > 0 {
		headers.Set("paging-total-items", strconv.Itoa(pagingResp.TotalItems))
	}
	if pagingResp.TotalPages > 0 {
		headers.Set("paging-total-pages", strconv.Itoa(pagingResp.TotalPages))
	}
	if pagingResp.CurrentPage > -1 {
		headers.Set("paging-current-page", strconv.Itoa(pagingResp.CurrentPage))
	}
	if pagingResp.Previous != "" {
		headers.Set("paging-previous", pagingResp.Previous)
	}
	if pagingResp.Next != "" {
		headers.Set("paging-next", pagingResp.Next)
	}
}

/*
NewPagingResp computes the page counts and neighbour links for pagingReq over
totalItems items. Links are built from baseURL by replacing its paging-offset and
paging-limit query parameters. Without a limit everything fits on page 0 and no links
are made.
*/
func NewPagingResp(pagingReq *PagingReq, totalItems int, baseURL *url.URL) *PagingResp {
	pagingResp := &PagingResp{
		PagingReq:   pagingReq,
		TotalItems:  totalItems,
		TotalPages:  1,
		CurrentPage: 0,
	}
	if pagingReq.Limit <= 0 {
		return pagingResp
	}

	pagingResp.TotalPages = (totalItems + pagingReq.Limit - 1) / pagingReq.Limit
	pagingResp.CurrentPage = pagingReq.Offset / pagingReq.Limit

	if baseURL == nil {
		return pagingResp
	}

	if pagingReq.Offset+pagingReq.Limit < totalItems {
		pagingResp.Next = pageLink(baseURL, pagingReq.Offset+pagingReq.Limit, pagingReq.Limit)
	}
	if pagingReq.Offset > 0 {
		previous := pagingReq.Offset - pagingReq.Limit
		if previous < 0 {
			previous = 0
		}
		pagingResp.Previous = pageLink(baseURL, previous, pagingReq.Limit)
	}

	return pagingResp
}

func pageLink(baseURL *url.URL, offset int, limit int) string {
	link := *baseURL
	query := link.Query()
	(&PagingReq{Offset: offset, Limit: limit}).ToParams(query)
	link.RawQuery = query.Encode()
	return link.String()
}

type valueFetcher interface {
	Get(key string) string
}

func getInt(headers valueFetcher, fieldName string, defaultValue int) (int, error) {
	var valueInt int
	var err error

	value := headers.Get(fieldName)
	if value == "" {
		valueInt = defaultValue
	} else {
		valueInt, err = strconv.Atoi(value)
		if err != nil {
			return 0, xerrors.New(fieldName + " is not int")
		}
	}
	return valueInt, nil
}

// Generates a PagingReq object from request parameters.
func PagingReqFromParams(
	headers valueFetcher, defaultLimit int,
) (pagingReq *PagingReq, err error) {
	pagingReq = &PagingReq{}

	pagingReq.Offset, err = getInt(headers, "paging-offset", 0)
	if err != nil {
		return nil, err
	}

	pagingReq.Limit, err = getInt(headers, "paging-limit", defaultLimit)
	if err != nil {
		return nil, err
	}

	if pagingReq.Offset < 0 {
		return nil, xerrors.New("paging-offset must not be negative")
	}

	return pagingReq, nil
}

// PagingRespFromHeaders generates a PagingResp object from response headers.
func PagingRespFromHeaders(
	params valueFetcher, defaultLimit int,
) (pagingResp *PagingResp, err error) {

	pagingReq, err := PagingReqFromParams(params, defaultLimit)
	if err != nil {
		return nil, err
	}

	pagingResp = &PagingResp{PagingReq: pagingReq}

	// These fields may not always have valid values. For this reason, we are going
	// to use -1 as a default to flag that the value was not present in the params.
	pagingResp.TotalPages, err = getInt(
		params, "paging-total-pages", -1,
	)
	if err != nil {
		return nil, err
	}

	pagingResp.TotalItems, err = getInt(
		params, "paging-total-items", -1,
	)
	if err != nil {
		return nil, err
	}

	pagingResp.CurrentPage, err = getInt(
		params, "paging-current-page", -1,
	)
	if err != nil {
		return nil, err
	}

	pagingResp.Previous = params.Get("paging-previous")
	pagingResp.Next = params.Get("paging-next")

	return pagingResp, nil
}
