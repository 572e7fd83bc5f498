// SPDX-License-Identifier: GPL-3.0-or-later

package measurement

// TelegramTestKeys contains the telegram test keys.
type TelegramTestKeys struct {
	ConnectivityTestKeys

	TelegramHTTPBlocking bool    `json:"telegram_http_blocking"`
	TelegramTCPBlocking  bool    `json:"telegram_tcp_blocking"`
	TelegramWebFailure   *string `json:"telegram_web_failure"`
	TelegramWebStatus    string  `json:"telegram_web_status"`
}
