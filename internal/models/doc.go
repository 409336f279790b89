// Package models defines the data model for the word subscription client.
//
// The package contains two categories of types:
//
// 1. Closed enumerations mirroring the backend contract:
//   - [Language] : the languages a subscription can deliver words for
//   - [Difficulty] : the word difficulty tier of a subscription
//
// 2. Session state:
//   - [Session] : the durable record proving the user authenticated with
//     Kakao, plus cached profile and subscription data
//   - [UserInfo] : profile and subscription fields embedded in a session
//
// [Session] owns the validity and refresh-window predicates. A session with an
// empty access token is never valid, regardless of expiry.
package models
